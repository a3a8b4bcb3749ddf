// Package config resolves, parses, validates, and defaults scribe configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by scribe.
type Config struct {
	Transport          string
	Port               int
	SocketDir          string
	TmpDir             string
	IOTimeoutMS        int
	ConnectTimeoutMS   int
	MaxFrameBytes      int
	StrictProtocol     bool
	ProjectSuffix      string
	AllowProjectSwitch bool
	PresentWindow      bool
	PresentCmd         CommandConfig
	LogLevel           string
	Indicator          IndicatorConfig
}

// IndicatorConfig controls the status notification surface.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	ErrorTimeoutMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// IOTimeout is the per-call read/write deadline on an IPC connection.
func (c Config) IOTimeout() time.Duration {
	return time.Duration(c.IOTimeoutMS) * time.Millisecond
}

// ConnectTimeout bounds the single connect attempt a launcher makes.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}
