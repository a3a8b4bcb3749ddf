package session

// Document is one entry of the registry.
type Document struct {
	Name     string
	ReadOnly bool
	Favorite bool
	Line     int
	Column   int
}

// register adds doc or refreshes an already open document in place.
// Callers hold c.mu.
func (c *Controller) register(doc Document) bool {
	for i := range c.docs {
		if c.docs[i].Name == doc.Name {
			c.docs[i] = doc
			return true
		}
	}
	c.docs = append(c.docs, doc)
	return false
}

// Documents lists open document names in registry order.
func (c *Controller) Documents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.docs))
	for _, doc := range c.docs {
		names = append(names, doc.Name)
	}
	return names
}

// Document returns the registry entry for name.
func (c *Controller) Document(name string) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.docs {
		if doc.Name == name {
			return doc, true
		}
	}
	return Document{}, false
}
