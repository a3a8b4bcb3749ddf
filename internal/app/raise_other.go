//go:build !windows

package app

// Native handles are only exchanged on Windows.
func windowHandle() []byte { return nil }

func raiseWindow([]byte) error { return nil }
