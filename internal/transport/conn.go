// Package transport dials and listens on the local endpoints used for
// single-instance coordination: filesystem domain sockets and loopback TCP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

const (
	// DefaultIOTimeout bounds every single read or write on a connection.
	DefaultIOTimeout = 60 * time.Second
	// DefaultDialTimeout bounds the one connect attempt made during role resolution.
	DefaultDialTimeout = 2 * time.Second
	// DefaultPort is the reserved loopback port used when domain sockets are unavailable.
	DefaultPort = 49876
)

var (
	// ErrUnreachable reports that no listener answered a connect attempt.
	ErrUnreachable = errors.New("endpoint not reachable")
	// ErrTimeout reports that a read or write exceeded the per-call IO timeout.
	ErrTimeout = errors.New("socket io timeout")
)

// Options controls connection timing.
type Options struct {
	IOTimeout   time.Duration
	DialTimeout time.Duration
}

// DefaultOptions returns the production timeouts.
func DefaultOptions() Options {
	return Options{IOTimeout: DefaultIOTimeout, DialTimeout: DefaultDialTimeout}
}

// Conn is a stream connection that applies a fresh deadline before each IO call.
type Conn struct {
	conn    manet.Conn
	timeout time.Duration
}

func newConn(c manet.Conn, timeout time.Duration) *Conn {
	return &Conn{conn: c, timeout: timeout}
}

func (c *Conn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, fmt.Errorf("set read deadline: %w", err)
		}
	}
	n, err := c.conn.Read(p)
	return n, wrapIOError(err)
}

func (c *Conn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, fmt.Errorf("set write deadline: %w", err)
		}
	}
	n, err := c.conn.Write(p)
	return n, wrapIOError(err)
}

// Close releases the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer address as a multiaddr.
func (c *Conn) RemoteAddr() ma.Multiaddr {
	return c.conn.RemoteMultiaddr()
}

// IsTimeout reports whether err was caused by the per-call IO timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// wrapIOError tags deadline expiry with ErrTimeout and leaves io.EOF untouched.
func wrapIOError(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// Dial makes one bounded connect attempt to addr.
//
// Any connect failure is reported as ErrUnreachable: a missing path, a refused
// connection, or a leftover non-socket file all mean nobody is serving addr.
func Dial(ctx context.Context, addr ma.Multiaddr, opts Options) (*Conn, error) {
	dialer := manet.Dialer{Dialer: net.Dialer{Timeout: opts.DialTimeout}}
	c, err := dialer.DialContext(ctx, addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, addr, err)
	}
	return newConn(c, opts.IOTimeout), nil
}

// Listener accepts coordination connections.
type Listener struct {
	listener manet.Listener
	timeout  time.Duration
}

// Listen binds addr and starts listening.
func Listen(addr ma.Multiaddr, opts Options) (*Listener, error) {
	l, err := manet.Listen(addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Listener{listener: l, timeout: opts.IOTimeout}, nil
}

// Accept blocks until one peer connects.
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}
	return newConn(c, l.timeout), nil
}

// Close stops listening. Pending and future Accept calls return net.ErrClosed.
func (l *Listener) Close() error {
	return l.listener.Close()
}

// Addr returns the bound address.
func (l *Listener) Addr() ma.Multiaddr {
	return l.listener.Multiaddr()
}
