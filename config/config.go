// Package config handles configuration loading and saving.
package config

import (
	"strings"
	"time"

	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/logger"
)

const (
	configFileName = "config.yaml"
	envFileName    = ".env"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Script  string        `json:"script,omitempty" yaml:"script,omitempty"` // path to a script.yaml; empty = built-in
	Pacing  PacingConfig  `json:"pacing" yaml:"pacing"`
	UI      UIConfig      `json:"ui,omitempty" yaml:"ui,omitempty"`
	Web     WebConfig     `json:"web,omitempty" yaml:"web,omitempty"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// PacingConfig holds the conversation delays. Zero values fall back to the
// defaults; use Instant for a run with no delays at all.
type PacingConfig struct {
	Startup      time.Duration `json:"startup,omitempty" yaml:"startup,omitempty"`
	Reply        time.Duration `json:"reply,omitempty" yaml:"reply,omitempty"`
	Thinking     time.Duration `json:"thinking,omitempty" yaml:"thinking,omitempty"`
	Between      time.Duration `json:"between,omitempty" yaml:"between,omitempty"`
	FooterSettle time.Duration `json:"footerSettle,omitempty" yaml:"footerSettle,omitempty"`
	StageBuffer  time.Duration `json:"stageBuffer,omitempty" yaml:"stageBuffer,omitempty"`
	RevealSpeed  time.Duration `json:"revealSpeed,omitempty" yaml:"revealSpeed,omitempty"` // per character
	Instant      bool          `json:"instant,omitempty" yaml:"instant,omitempty"`
}

// UIConfig contains terminal chat options.
type UIConfig struct {
	ShowLogs bool    `json:"showLogs,omitempty" yaml:"showLogs,omitempty"` // log panel visible at start
	LogRatio float64 `json:"logRatio,omitempty" yaml:"logRatio,omitempty"` // share of height for the log panel
}

// WebConfig contains the browser surface options.
type WebConfig struct {
	Addr       string        `json:"addr,omitempty" yaml:"addr,omitempty"`             // default: 127.0.0.1:8080
	SessionTTL time.Duration `json:"sessionTTL,omitempty" yaml:"sessionTTL,omitempty"` // idle time before a visitor session is dropped
	Sweep      string        `json:"sweep,omitempty" yaml:"sweep,omitempty"`           // cron spec for the idle session sweep
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to the terminal
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
}

// ToPacing converts the config section into orchestrator pacing.
func (p PacingConfig) ToPacing() conversation.Pacing {
	if p.Instant {
		return conversation.InstantPacing()
	}
	return conversation.Pacing{
		Startup:      p.Startup,
		Reply:        p.Reply,
		Thinking:     p.Thinking,
		Between:      p.Between,
		FooterSettle: p.FooterSettle,
		StageBuffer:  p.StageBuffer,
		RevealSpeed:  p.RevealSpeed,
	}
}

// BuildLoggerConfig converts the logging section into logger settings.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := true
	if c.Logging.Enabled != nil {
		enabled = *c.Logging.Enabled
	}
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
	}
}
