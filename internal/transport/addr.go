package transport

import (
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

// UnixAddr converts an absolute filesystem path into a /unix multiaddr.
func UnixAddr(socketPath string) (ma.Multiaddr, error) {
	abs, err := filepath.Abs(socketPath)
	if err != nil {
		return nil, fmt.Errorf("resolve socket path %q: %w", socketPath, err)
	}
	return ma.NewMultiaddr(path.Join("/unix/", filepath.ToSlash(abs)))
}

// LoopbackAddr returns the IPv4 loopback TCP multiaddr for port.
func LoopbackAddr(port int) (ma.Multiaddr, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid loopback port %d", port)
	}
	return ma.NewMultiaddr(fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", port))
}

// SocketPath extracts the filesystem path of a /unix multiaddr.
func SocketPath(addr ma.Multiaddr) (string, bool) {
	value, err := addr.ValueForProtocol(ma.P_UNIX)
	if err != nil {
		return "", false
	}
	if runtime.GOOS == "windows" { // `/C:\path` -> `C:\path`
		value = strings.TrimPrefix(value, "/")
	}
	return filepath.FromSlash(value), true
}
