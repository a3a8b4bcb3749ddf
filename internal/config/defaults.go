package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Transport:          "auto",
		Port:               49876,
		IOTimeoutMS:        60000,
		ConnectTimeoutMS:   2000,
		MaxFrameBytes:      4096,
		StrictProtocol:     false,
		ProjectSuffix:      ".scribe",
		AllowProjectSwitch: true,
		PresentWindow:      true,
		LogLevel:           "info",
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "scribe",
			ErrorTimeoutMS: 1600,
		},
	}
}
