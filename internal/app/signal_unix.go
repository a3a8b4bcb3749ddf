//go:build unix

package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// watchCancel maps SIGUSR1 onto cancel so a running open sequence can be
// interrupted from outside, e.g. `pkill -USR1 scribe`. cancel reports
// whether a sequence was running; a signal between sequences is dropped.
func watchCancel(ctx context.Context, cancel func() bool, logger *slog.Logger) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-signals:
				if cancel() {
					logger.Info("open cancel requested")
				} else {
					logger.Debug("cancel signal ignored; no open sequence running")
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(signals)
		close(done)
	}
}
