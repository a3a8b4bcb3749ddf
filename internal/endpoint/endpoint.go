// Package endpoint owns the discoverable artifact a primary listens on:
// naming it per desktop session, guarding its ownership, clearing stale
// leftovers and binding a fresh listener.
package endpoint

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/rbright/scribe/internal/transport"
)

// Kind selects the local IPC primitive.
type Kind string

const (
	KindAuto Kind = "auto"
	KindUnix Kind = "unix"
	KindTCP  Kind = "tcp"
)

// ParseKind validates a configured transport name. Empty means auto.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindAuto:
		return KindAuto, nil
	case KindUnix:
		return KindUnix, nil
	case KindTCP:
		return KindTCP, nil
	default:
		return "", fmt.Errorf("unsupported transport %q (expected auto|unix|tcp)", raw)
	}
}

// Resolve maps auto onto the platform default.
func (k Kind) Resolve() Kind {
	if k != KindAuto && k != "" {
		return k
	}
	if runtime.GOOS == "windows" {
		return KindTCP
	}
	return KindUnix
}

// Endpoint is one way of reaching or becoming the primary.
type Endpoint interface {
	// Prepare runs the checks that must pass before any connect or listen.
	Prepare() error
	// Connect makes one bounded attempt to reach a running primary.
	Connect(ctx context.Context) (*transport.Conn, error)
	// Listen clears leftovers and binds a fresh listener.
	Listen() (*transport.Listener, error)
	// Close releases whatever Listen or Prepare acquired.
	Close() error
	Addr() ma.Multiaddr
	Kind() Kind
}

// Options configures Select.
type Options struct {
	Kind   Kind
	Prefix string
	// Dir holds the discoverable artifact, normally the config directory.
	Dir string
	// TmpDir holds the real socket the artifact links to.
	TmpDir string
	// SocketFile overrides the derived artifact path.
	SocketFile string
	Identity   Identity
	Port       int
	// LockDir holds the loopback lock file on platforms using flock.
	LockDir   string
	Transport transport.Options
	Logger    *slog.Logger
}

// Select builds the endpoint for opts.Kind.
func Select(opts Options) (Endpoint, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "scribe"
	}

	switch opts.Kind.Resolve() {
	case KindUnix:
		path := opts.SocketFile
		if path == "" {
			if opts.Dir == "" {
				return nil, fmt.Errorf("artifact directory is not set")
			}
			path = ArtifactPath(opts.Dir, prefix, opts.Identity)
		}
		tmpDir := opts.TmpDir
		if tmpDir == "" {
			tmpDir = os.TempDir()
		}
		return NewSocket(path, tmpDir, prefix, opts.Transport, opts.Logger), nil
	case KindTCP:
		port := opts.Port
		if port == 0 {
			port = transport.DefaultPort
		}
		return NewLoopback(port, opts.LockDir, prefix, opts.Transport, opts.Logger)
	default:
		return nil, fmt.Errorf("unsupported transport %q", opts.Kind)
	}
}

func discard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
