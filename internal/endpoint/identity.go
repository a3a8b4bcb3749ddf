package endpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NoDisplay names the session when no display server is set.
const NoDisplay = "NODISPLAY"

// Identity names one desktop session on one host. Every launch inside the
// same session derives the same Identity.
type Identity struct {
	Host    string
	Display string
}

// DetectIdentity reads the hostname and active display from the environment.
func DetectIdentity() Identity {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = "localhost"
	}

	display := NoDisplay
	for _, key := range []string{"WAYLAND_DISPLAY", "DISPLAY"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			display = value
			break
		}
	}
	return Identity{Host: host, Display: display}
}

// SanitizedDisplay strips a trailing ".<screen>" suffix that follows the last
// ':' and replaces characters unsafe in a filename.
func (id Identity) SanitizedDisplay() string {
	display := id.Display
	if display == "" {
		display = NoDisplay
	}

	dot := strings.LastIndexByte(display, '.')
	if dot > strings.LastIndexByte(display, ':') && isDigits(display[dot+1:]) {
		display = display[:dot]
	}
	return strings.NewReplacer(":", "_", "/", "_").Replace(display)
}

// String renders the identity as it appears in artifact names.
func (id Identity) String() string {
	return id.Host + "_" + id.SanitizedDisplay()
}

// ArtifactPath is the discoverable path <dir>/<prefix>_socket_<host>_<display>.
func ArtifactPath(dir, prefix string, id Identity) string {
	return filepath.Join(dir, fmt.Sprintf("%s_socket_%s", prefix, id))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
