//go:build !unix && !windows

package transport

import "errors"

// AcquireNamedLock is unsupported on this platform.
func AcquireNamedLock(string, string) (*NamedLock, error) {
	return nil, errors.New("named lock unsupported on this platform")
}
