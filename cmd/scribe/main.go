// Command scribe opens files in the running scribe instance, or becomes that
// instance when none is running.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/scribe/internal/app"
)

func main() {
	// A primary stops serving and removes its socket on any of these.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	code := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
