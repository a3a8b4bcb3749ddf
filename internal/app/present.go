package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/scribe/internal/config"
)

const presentTimeout = 2 * time.Second

// commandPresenter runs the configured present_cmd to raise the window.
// {pid} and {ppid} in its arguments name this process and its parent.
type commandPresenter struct {
	argv []string
}

func (p commandPresenter) Present(ctx context.Context) error {
	if len(p.argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}
	ctx, cancel := context.WithTimeout(ctx, presentTimeout)
	defer cancel()

	argv := config.ExpandArgv(p.argv, map[string]string{
		"pid":  strconv.Itoa(os.Getpid()),
		"ppid": strconv.Itoa(os.Getppid()),
	})
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return fmt.Errorf("run %s: %w", argv[0], err)
		}
		return fmt.Errorf("run %s: %w (%s)", argv[0], err, trimmed)
	}
	return nil
}
