package config

import (
	"time"

	"github.com/kinodev/chatfolio/conversation"
)

const (
	defaultWebAddr    = "127.0.0.1:8080"
	defaultSessionTTL = 30 * time.Minute
	defaultSweep      = "@every 1m"
	defaultLogRatio   = 0.25
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	p := conversation.DefaultPacing()
	return &Config{
		Pacing: PacingConfig{
			Startup:      p.Startup,
			Reply:        p.Reply,
			Thinking:     p.Thinking,
			Between:      p.Between,
			FooterSettle: p.FooterSettle,
			StageBuffer:  p.StageBuffer,
			RevealSpeed:  p.RevealSpeed,
		},
		UI: UIConfig{
			LogRatio: defaultLogRatio,
		},
		Web: WebConfig{
			Addr:       defaultWebAddr,
			SessionTTL: defaultSessionTTL,
			Sweep:      defaultSweep,
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		Stdout:  false,
		File:    "logs/chatfolio.log",
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	p := &c.Pacing
	if p.Startup <= 0 {
		p.Startup = def.Pacing.Startup
	}
	if p.Reply <= 0 {
		p.Reply = def.Pacing.Reply
	}
	if p.Thinking <= 0 {
		p.Thinking = def.Pacing.Thinking
	}
	if p.Between <= 0 {
		p.Between = def.Pacing.Between
	}
	if p.FooterSettle <= 0 {
		p.FooterSettle = def.Pacing.FooterSettle
	}
	if p.StageBuffer <= 0 {
		p.StageBuffer = def.Pacing.StageBuffer
	}
	if p.RevealSpeed <= 0 {
		p.RevealSpeed = def.Pacing.RevealSpeed
	}

	if c.UI.LogRatio <= 0 || c.UI.LogRatio >= 1 {
		c.UI.LogRatio = def.UI.LogRatio
	}
	if c.Web.Addr == "" {
		c.Web.Addr = def.Web.Addr
	}
	if c.Web.SessionTTL <= 0 {
		c.Web.SessionTTL = def.Web.SessionTTL
	}
	if c.Web.Sweep == "" {
		c.Web.Sweep = def.Web.Sweep
	}

	logDef := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = logDef
		return
	}

	hasAny := c.Logging.Level != "" || c.Logging.File != "" || c.Logging.Stdout
	if c.Logging.Enabled == nil && hasAny {
		enabled := true
		c.Logging.Enabled = &enabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = logDef.Level
	}
	if c.Logging.File == "" && !c.Logging.Stdout {
		c.Logging.File = logDef.File
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = logDef.Enabled
	}
}
