package endpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rbright/scribe/internal/transport"
)

// ErrForeignOwner reports an artifact owned by another user.
var ErrForeignOwner = errors.New("endpoint artifact owned by another user")

// ForeignOwnerError is fatal: the process must stop before connecting or
// listening on an artifact another user controls.
type ForeignOwnerError struct {
	Path  string
	Owner int
	UID   int
}

func (e *ForeignOwnerError) Error() string {
	return fmt.Sprintf(
		"socket %s is owned by uid %d but this process runs as uid %d; remove it and start again",
		e.Path, e.Owner, e.UID,
	)
}

func (e *ForeignOwnerError) Unwrap() error {
	return ErrForeignOwner
}

// CheckOwnership fails when path exists and is not owned by uid. The link
// itself is inspected, not its target. A missing path is fine.
func CheckOwnership(path string, uid int) error {
	owner, exists, err := artifactOwner(path)
	if err != nil {
		return fmt.Errorf("inspect artifact %s: %w", path, err)
	}
	if exists && owner != uid {
		return &ForeignOwnerError{Path: path, Owner: owner, UID: uid}
	}
	return nil
}

// ArtifactInfo describes the discoverable artifact on disk.
type ArtifactInfo struct {
	Path   string
	Exists bool
	IsLink bool
	Target string
	Owner  int
	// HasOwner is false on platforms without numeric file owners.
	HasOwner bool
}

// Inspect reports what currently sits at path.
func Inspect(path string) (ArtifactInfo, error) {
	info := ArtifactInfo{Path: path}
	st, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, nil
		}
		return info, err
	}
	info.Exists = true
	if st.Mode()&fs.ModeSymlink != 0 {
		info.IsLink = true
		if target, err := os.Readlink(path); err == nil {
			info.Target = target
		}
	}
	owner, exists, err := artifactOwner(path)
	if err != nil {
		return info, err
	}
	info.Owner, info.HasOwner = owner, exists && hasNumericOwners
	return info, nil
}

// RemoveStale deletes the real endpoint a link at path points to, then the
// link itself. Links are followed exactly one level. Missing files are not
// errors.
func RemoveStale(path string) error {
	var errs []error
	if target, err := os.Readlink(path); err == nil {
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove socket %s: %w", target, err))
		}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove link %s: %w", path, err))
	}
	return errors.Join(errs...)
}

// RemoveStaleIf is RemoveStale for an artifact observed earlier: it does
// nothing once the link at path points somewhere other than target, i.e. a
// concurrent primary replaced it. An empty target matches a path that is not
// a link.
func RemoveStaleIf(path, target string) error {
	current, err := os.Readlink(path)
	if err != nil {
		current = ""
	}
	if current != target {
		return nil
	}
	return RemoveStale(path)
}

// RealSocketPath returns <tmpDir>/<prefix>_socket.<8 hex>.
func RealSocketPath(tmpDir, prefix string) string {
	return filepath.Join(tmpDir, fmt.Sprintf("%s_socket.%08x", prefix, uuid.New().ID()))
}

// CreateFresh binds a new socket for the discoverable path and returns the
// listener with the real socket path.
//
// The socket normally lives under tmpDir with path as a symlink to it. The
// link is created only after the socket listens, so a peer that finds the
// link can always connect. When tmpDir is not writable, or binding there
// fails, the socket is bound at path itself. The real socket is restricted
// to mode 0600.
//
// CreateFresh never replaces anything at path: an existing artifact fails
// with fs.ErrExist.
func CreateFresh(path, tmpDir, prefix string, opts transport.Options, logger *slog.Logger) (*transport.Listener, string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, "", fmt.Errorf("ensure artifact dir: %w", err)
	}

	if tmpDir == "" || !dirWritable(tmpDir) {
		logger.Warn("temp dir not writable; binding socket at artifact path", "tmp_dir", tmpDir, "path", path)
		return bindAtPath(path, opts)
	}

	realPath := RealSocketPath(tmpDir, prefix)
	listener, err := bindPrivate(realPath, opts)
	if err != nil {
		logger.Warn("bind in temp dir failed; binding socket at artifact path", "real_path", realPath, "error", err.Error())
		return bindAtPath(path, opts)
	}

	// A concurrent primary that linked first makes this fail with fs.ErrExist.
	if err := os.Symlink(realPath, path); err != nil {
		_ = listener.Close()
		_ = os.Remove(realPath)
		return nil, "", fmt.Errorf("link %s -> %s: %w", path, realPath, err)
	}
	return listener, realPath, nil
}

func bindAtPath(path string, opts transport.Options) (*transport.Listener, string, error) {
	if _, err := os.Lstat(path); err == nil {
		return nil, "", fmt.Errorf("bind %s: %w", path, fs.ErrExist)
	}
	listener, err := bindPrivate(path, opts)
	if err != nil {
		return nil, "", err
	}
	return listener, path, nil
}

func bindPrivate(socketPath string, opts transport.Options) (*transport.Listener, error) {
	addr, err := transport.UnixAddr(socketPath)
	if err != nil {
		return nil, err
	}
	listener, err := transport.Listen(addr, opts)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("restrict socket %s: %w", socketPath, err)
	}
	return listener, nil
}

func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
