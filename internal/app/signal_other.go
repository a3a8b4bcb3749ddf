//go:build !unix

package app

import (
	"context"
	"log/slog"
)

func watchCancel(context.Context, func() bool, *slog.Logger) func() {
	return func() {}
}
