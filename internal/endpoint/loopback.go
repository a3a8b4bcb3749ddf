package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/rbright/scribe/internal/transport"
)

// Loopback is a TCP endpoint on 127.0.0.1 guarded by a named lock. The lock
// holder is the only process that may bind the port.
type Loopback struct {
	addr      ma.Multiaddr
	lockDir   string
	lockName  string
	transport transport.Options
	logger    *slog.Logger

	lock *transport.NamedLock
}

// NewLoopback returns a Loopback endpoint for port.
func NewLoopback(port int, lockDir, lockName string, opts transport.Options, logger *slog.Logger) (*Loopback, error) {
	addr, err := transport.LoopbackAddr(port)
	if err != nil {
		return nil, err
	}
	return &Loopback{
		addr:      addr,
		lockDir:   lockDir,
		lockName:  lockName,
		transport: opts,
		logger:    discard(logger),
	}, nil
}

func (l *Loopback) Kind() Kind { return KindTCP }

func (l *Loopback) Addr() ma.Multiaddr { return l.addr }

// Prepare tries to take the named lock. Losing it is not an error: it means
// another process is primary.
func (l *Loopback) Prepare() error {
	lock, err := transport.AcquireNamedLock(l.lockDir, l.lockName)
	if err != nil {
		if errors.Is(err, transport.ErrLockHeld) {
			l.logger.Debug("named lock held elsewhere", "name", l.lockName)
			return nil
		}
		return fmt.Errorf("acquire named lock: %w", err)
	}
	l.lock = lock
	return nil
}

// Connect only dials when another process holds the lock.
func (l *Loopback) Connect(ctx context.Context) (*transport.Conn, error) {
	if l.lock != nil {
		return nil, fmt.Errorf("%w: %s: this process holds the lock", transport.ErrUnreachable, l.addr)
	}
	return transport.Dial(ctx, l.addr, l.transport)
}

func (l *Loopback) Listen() (*transport.Listener, error) {
	if l.lock == nil {
		return nil, fmt.Errorf("listen %s: %w", l.addr, transport.ErrLockHeld)
	}
	listener, err := transport.Listen(l.addr, l.transport)
	if err != nil {
		return nil, err
	}
	l.logger.Info("listening", "addr", l.addr.String())
	return listener, nil
}

func (l *Loopback) Close() error {
	err := l.lock.Release()
	l.lock = nil
	return err
}
