package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (
	appDir   = "scribe"
	fileName = "config.jsonc"

	// EnvConfigPath overrides the XDG location when no --config is given.
	EnvConfigPath = "SCRIBE_CONFIG"
)

// ResolvePath picks the config file: the explicit flag value, then
// $SCRIBE_CONFIG, then $XDG_CONFIG_HOME/scribe/config.jsonc. A leading "~/"
// expands to the home directory.
func ResolvePath(explicit string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv(EnvConfigPath)} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		return expandHome(candidate)
	}
	return filepath.Join(Dir(), fileName), nil
}

// Dir is the per-user scribe config directory. It also holds the
// discoverable socket artifact unless socket_dir overrides it.
func Dir() string {
	xdg.Reload()
	return filepath.Join(xdg.ConfigHome, appDir)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	xdg.Reload()
	home := xdg.Home
	if home == "" {
		return "", fmt.Errorf("expand %q: home directory is unknown", path)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
