package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/rbright/scribe/internal/transport"
)

// ErrInUse reports that another primary holds the artifact.
var ErrInUse = errors.New("endpoint claimed by another primary")

// Socket is a filesystem domain socket reached through a discoverable path.
type Socket struct {
	Path   string
	TmpDir string
	Prefix string
	// UID is the user the artifact must belong to.
	UID       int
	Transport transport.Options
	Logger    *slog.Logger

	realPath string
	bound    bool
}

// NewSocket returns a Socket endpoint owned by the current user.
func NewSocket(path, tmpDir, prefix string, opts transport.Options, logger *slog.Logger) *Socket {
	return &Socket{
		Path:      path,
		TmpDir:    tmpDir,
		Prefix:    prefix,
		UID:       CurrentUID(),
		Transport: opts,
		Logger:    discard(logger),
	}
}

func (s *Socket) Kind() Kind { return KindUnix }

func (s *Socket) Addr() ma.Multiaddr {
	addr, err := transport.UnixAddr(s.Path)
	if err != nil {
		return nil
	}
	return addr
}

// RealPath is the bound socket location once Listen succeeded.
func (s *Socket) RealPath() string {
	return s.realPath
}

func (s *Socket) Prepare() error {
	return CheckOwnership(s.Path, s.UID)
}

func (s *Socket) Connect(ctx context.Context) (*transport.Conn, error) {
	addr, err := transport.UnixAddr(s.Path)
	if err != nil {
		return nil, err
	}
	return transport.Dial(ctx, addr, s.Transport)
}

// Listen claims the artifact. Creating the link is the atomic step: of two
// launches that both found no primary, the one whose link lands first wins
// and the other fails with ErrInUse. An existing artifact is replaced only
// after a fresh connect shows nobody serves it.
func (s *Socket) Listen() (*transport.Listener, error) {
	listener, realPath, err := CreateFresh(s.Path, s.TmpDir, s.Prefix, s.Transport, s.Logger)
	if errors.Is(err, fs.ErrExist) {
		listener, realPath, err = s.replaceStale()
	}
	if err != nil {
		return nil, fmt.Errorf("create endpoint %s: %w", s.Path, err)
	}
	s.realPath = realPath
	s.bound = true
	s.Logger.Info("listening", "path", s.Path, "real_path", realPath)
	return listener, nil
}

func (s *Socket) replaceStale() (*transport.Listener, string, error) {
	target, _ := os.Readlink(s.Path)

	conn, err := s.Connect(context.Background())
	if err == nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("%w: %s is being served", ErrInUse, s.Path)
	}
	if !errors.Is(err, transport.ErrUnreachable) {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrInUse, s.Path, err)
	}

	s.Logger.Info("removing stale artifact", "path", s.Path, "target", target)
	if err := RemoveStaleIf(s.Path, target); err != nil {
		return nil, "", fmt.Errorf("remove stale artifact: %w", err)
	}
	listener, realPath, err := CreateFresh(s.Path, s.TmpDir, s.Prefix, s.Transport, s.Logger)
	if errors.Is(err, fs.ErrExist) {
		return nil, "", fmt.Errorf("%w: %s was claimed concurrently", ErrInUse, s.Path)
	}
	return listener, realPath, err
}

// Close removes the socket this process bound, and the link when it still
// points there. An artifact another primary put in place is left alone.
func (s *Socket) Close() error {
	if !s.bound {
		return nil
	}
	s.bound = false
	if s.realPath == s.Path {
		return RemoveStaleIf(s.Path, "")
	}

	var errs []error
	if err := RemoveStaleIf(s.Path, s.realPath); err != nil {
		errs = append(errs, err)
	}
	if err := os.Remove(s.realPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove socket %s: %w", s.realPath, err))
	}
	return errors.Join(errs...)
}
