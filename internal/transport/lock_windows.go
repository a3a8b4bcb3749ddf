//go:build windows

package transport

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

type mutexImpl struct {
	handle windows.Handle
}

// AcquireNamedLock creates the named OS mutex. The dir argument is unused on
// Windows because mutex names are global to the session.
func AcquireNamedLock(_ string, name string) (*NamedLock, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("mutex name %q: %w", name, err)
	}
	handle, err := windows.CreateMutex(nil, false, namePtr)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if handle != 0 {
				_ = windows.CloseHandle(handle)
			}
			return nil, fmt.Errorf("%w: mutex %s", ErrLockHeld, name)
		}
		return nil, fmt.Errorf("create mutex %s: %w", name, err)
	}
	return &NamedLock{name: name, impl: mutexImpl{handle: handle}}, nil
}

func (m mutexImpl) release() error {
	return windows.CloseHandle(m.handle)
}
