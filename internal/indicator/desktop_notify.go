package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyInterface = "org.freedesktop.Notifications"
)

// Urgency levels from the freedesktop notification hints.
const (
	urgencyLow byte = iota
	urgencyNormal
	urgencyCritical
)

// desktopNotification is one Notify call. ReplaceID 0 asks the server for a
// new notification.
type desktopNotification struct {
	AppName   string
	ReplaceID uint32
	Summary   string
	TimeoutMS int
	Urgency   byte
}

func (n desktopNotification) args() []string {
	return []string{
		"Notify", "susssasa{sv}i",
		n.AppName,
		strconv.FormatUint(uint64(n.ReplaceID), 10),
		"", // icon
		n.Summary,
		"", // body
		"0",
		"1", "urgency", "y", strconv.Itoa(int(n.Urgency)),
		strconv.Itoa(n.TimeoutMS),
	}
}

// desktopNotify sends n over the session bus and returns the ID the server
// assigned.
func desktopNotify(ctx context.Context, n desktopNotification) (uint32, error) {
	out, err := busctlCall(ctx, n.args()...)
	if err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}

	kind, value, ok := strings.Cut(out, " ")
	if !ok || kind != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", out)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", value, err)
	}
	return uint32(id), nil
}

func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctlCall(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", err)
	}
	return nil
}

// busctlCall invokes a method on the notification service and returns the
// trimmed reply.
func busctlCall(ctx context.Context, method ...string) (string, error) {
	args := append([]string{"--user", "call", notifyService, notifyPath, notifyInterface}, method...)
	raw, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	out := strings.TrimSpace(string(raw))
	if err != nil {
		if out == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, out)
	}
	return out, nil
}

func urgencyForIcon(icon int) byte {
	switch icon {
	case 3:
		return urgencyCritical
	case 1:
		return urgencyNormal
	default:
		return urgencyLow
	}
}
