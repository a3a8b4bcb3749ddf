package hypr

import (
	"context"
	"fmt"
	"time"
)

// WindowPresenter focuses the first client window owned by one of PIDs,
// typically the primary process and the terminal that launched it.
type WindowPresenter struct {
	PIDs    []int
	Timeout time.Duration
}

func (p WindowPresenter) Present(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 400 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	windows, err := QueryClients(ctx)
	if err != nil {
		return err
	}
	for _, pid := range p.PIDs {
		for _, window := range windows {
			if pid > 0 && window.PID == pid && window.Address != "" {
				return FocusWindow(ctx, window.Address)
			}
		}
	}
	return fmt.Errorf("no client window for pids %v", p.PIDs)
}
