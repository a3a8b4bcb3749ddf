// Package instance decides whether this launch becomes the primary or hands
// its request to a running primary.
package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbright/scribe/internal/endpoint"
	"github.com/rbright/scribe/internal/transport"
)

// Role is the outcome of role resolution.
type Role string

const (
	// RolePrimary owns the listener and serves later launches.
	RolePrimary Role = "primary"
	// RoleSecondary forwarded its request; a remote instance handled it.
	RoleSecondary Role = "secondary"
)

// ForwardFunc relays this launch's request over an established connection.
type ForwardFunc func(ctx context.Context, conn *transport.Conn) error

// Result reports the resolved role.
type Result struct {
	Role Role
	// Listener is set for RolePrimary.
	Listener *transport.Listener
	// ForwardErr is a non-fatal relay failure for RoleSecondary.
	ForwardErr error
}

// Resolve makes a single connect attempt against ep. There is no retry: when
// two launches race, bind atomicity picks the primary and the loser fails.
//
// A foreign-owned artifact stops resolution before any connect or listen.
func Resolve(ctx context.Context, ep endpoint.Endpoint, forward ForwardFunc) (Result, error) {
	if err := ep.Prepare(); err != nil {
		return Result{}, err
	}

	conn, err := ep.Connect(ctx)
	if err == nil {
		defer conn.Close()
		var forwardErr error
		if forward != nil {
			forwardErr = forward(ctx, conn)
		}
		return Result{Role: RoleSecondary, ForwardErr: forwardErr}, nil
	}
	if !errors.Is(err, transport.ErrUnreachable) {
		return Result{}, fmt.Errorf("connect %s: %w", ep.Addr(), err)
	}

	listener, err := ep.Listen()
	if err != nil {
		return Result{}, fmt.Errorf("become primary: %w", err)
	}
	return Result{Role: RolePrimary, Listener: listener}, nil
}
