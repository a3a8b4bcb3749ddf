package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsHaveNoWarnings(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	cfg := Default()
	require.Equal(t, 60*time.Second, cfg.IOTimeout())
	require.Equal(t, 2*time.Second, cfg.ConnectTimeout())
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "pipe" }, wantErr: "transport"},
		{name: "zero port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "port"},
		{name: "port out of range", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port"},
		{name: "zero io timeout", mutate: func(c *Config) { c.IOTimeoutMS = 0 }, wantErr: "io_timeout_ms"},
		{name: "io timeout above one minute", mutate: func(c *Config) { c.IOTimeoutMS = 60001 }, wantErr: "io_timeout_ms must be within 1..60000"},
		{name: "zero connect timeout", mutate: func(c *Config) { c.ConnectTimeoutMS = 0 }, wantErr: "connect_timeout_ms"},
		{name: "tiny frame", mutate: func(c *Config) { c.MaxFrameBytes = 4 }, wantErr: "max_frame_bytes"},
		{name: "empty project suffix", mutate: func(c *Config) { c.ProjectSuffix = " " }, wantErr: "project_suffix"},
		{name: "present command raw but empty argv", mutate: func(c *Config) {
			c.PresentCmd = CommandConfig{Raw: "focus"}
		}, wantErr: "present_cmd"},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log_level"},
		{name: "unknown backend", mutate: func(c *Config) { c.Indicator.Backend = "dbus" }, wantErr: "indicator.backend"},
		{name: "desktop backend without app name", mutate: func(c *Config) {
			c.Indicator.Backend = "desktop"
			c.Indicator.DesktopAppName = ""
		}, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnIgnoredSettings(t *testing.T) {
	cfg := Default()
	cfg.Transport = "unix"
	cfg.Port = 50000
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "port is ignored")

	cfg = Default()
	cfg.Transport = "tcp"
	cfg.SocketDir = "/run/user/1000"
	cfg.ConnectTimeoutMS = cfg.IOTimeoutMS + 1
	warnings, err = Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "socket_dir is ignored")
	require.Contains(t, warnings[1].Message, "exceeds io_timeout_ms")
}
