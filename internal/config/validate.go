package config

import (
	"fmt"
	"strings"
)

const (
	minFrameBytes = 16
	// maxIOTimeoutMS caps how long one stalled peer can hold the primary.
	maxIOTimeoutMS = 60000
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	transport := strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch transport {
	case "", "auto", "unix", "tcp":
	default:
		return nil, fmt.Errorf("transport must be one of: auto, unix, tcp")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port must be within 1..65535")
	}
	if cfg.IOTimeoutMS <= 0 || cfg.IOTimeoutMS > maxIOTimeoutMS {
		return nil, fmt.Errorf("io_timeout_ms must be within 1..%d", maxIOTimeoutMS)
	}
	if cfg.ConnectTimeoutMS <= 0 {
		return nil, fmt.Errorf("connect_timeout_ms must be > 0")
	}
	if cfg.MaxFrameBytes < minFrameBytes {
		return nil, fmt.Errorf("max_frame_bytes must be >= %d", minFrameBytes)
	}
	if strings.TrimSpace(cfg.ProjectSuffix) == "" {
		return nil, fmt.Errorf("project_suffix must not be empty")
	}
	if cfg.PresentCmd.Raw != "" && len(cfg.PresentCmd.Argv) == 0 {
		return nil, fmt.Errorf("present_cmd is configured but empty")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if transport == "unix" && cfg.Port != Default().Port {
		warnings = append(warnings, Warning{Message: "port is ignored when transport=unix"})
	}
	if transport == "tcp" && strings.TrimSpace(cfg.SocketDir) != "" {
		warnings = append(warnings, Warning{Message: "socket_dir is ignored when transport=tcp"})
	}
	if cfg.ConnectTimeoutMS > cfg.IOTimeoutMS {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("connect_timeout_ms (%d) exceeds io_timeout_ms (%d)", cfg.ConnectTimeoutMS, cfg.IOTimeoutMS)})
	}

	return warnings, nil
}
