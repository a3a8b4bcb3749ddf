package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Window contains the client fields needed to target a focus dispatch.
type Window struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	PID     int    `json:"pid"`
}

func (w *Window) normalize() {
	w.Address = strings.TrimSpace(w.Address)
	w.Class = strings.TrimSpace(w.Class)
	w.Title = strings.TrimSpace(w.Title)
}

// QueryActiveWindow fetches and validates the active-window contract from hyprctl.
func QueryActiveWindow(ctx context.Context) (Window, error) {
	output, err := runHyprctlJSON(ctx, "activewindow")
	if err != nil {
		return Window{}, err
	}

	var window Window
	if err := json.Unmarshal(output, &window); err != nil {
		return Window{}, fmt.Errorf("decode hyprctl activewindow json: %w", err)
	}
	window.normalize()
	if window.Address == "" {
		return Window{}, fmt.Errorf("hyprctl activewindow returned empty address")
	}
	return window, nil
}

// QueryClients lists every mapped client window.
func QueryClients(ctx context.Context) ([]Window, error) {
	output, err := runHyprctlJSON(ctx, "clients")
	if err != nil {
		return nil, err
	}

	var windows []Window
	if err := json.Unmarshal(output, &windows); err != nil {
		return nil, fmt.Errorf("decode hyprctl clients json: %w", err)
	}
	for i := range windows {
		windows[i].normalize()
	}
	return windows, nil
}

// FocusWindow focuses the client at address.
func FocusWindow(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("focuswindow requires a window address")
	}
	return runHyprctl(ctx, "--quiet", "dispatch", "focuswindow", "address:"+address)
}

// Notify sends a Hyprland notification payload.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = "rgb(89b4fa)"
	}
	return runHyprctl(
		ctx,
		"--quiet",
		"dispatch",
		"notify",
		strconv.Itoa(icon),
		strconv.Itoa(timeoutMS),
		color,
		text,
	)
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}

// runHyprctlJSON executes a JSON-returning hyprctl subcommand.
func runHyprctlJSON(ctx context.Context, target string) ([]byte, error) {
	output, err := runHyprctlOutput(ctx, "-j", target)
	if err != nil {
		return nil, err
	}
	return output, nil
}
