package transport

import "errors"

// ErrLockHeld reports that another process already owns the named lock.
var ErrLockHeld = errors.New("named lock held by another process")

// NamedLock is a process-exclusive lock identified by name. Only the holder
// may bind the shared loopback port.
type NamedLock struct {
	name string
	impl lockImpl
}

// Name returns the lock identifier.
func (l *NamedLock) Name() string {
	return l.name
}

// Release gives the lock up. Releasing twice is a no-op.
func (l *NamedLock) Release() error {
	if l == nil || l.impl == nil {
		return nil
	}
	err := l.impl.release()
	l.impl = nil
	return err
}

type lockImpl interface {
	release() error
}
