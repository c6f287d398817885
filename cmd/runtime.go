package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kinodev/chatfolio/config"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/reveal"
	"github.com/kinodev/chatfolio/script"
)

// loadConfig reads the config and applies the persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if scriptFlag != "" {
		cfg.Script = scriptFlag
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	return cfg, nil
}

// prepare loads the config and the script it points at.
func prepare() (*config.Config, *script.Script, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	sc, err := script.Load(cfg.Script)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load script: %w", err)
	}
	source := cfg.Script
	if source == "" {
		source = "built-in"
	}
	logger.Info("script loaded", "source", source, "prompts", len(sc.Prompts), "projects", len(sc.Projects))
	return cfg, sc, nil
}

// conversationOptions maps the pacing section onto orchestrator options.
// Instant pacing also skips the reveal animation.
func conversationOptions(cfg *config.Config) []conversation.Option {
	opts := []conversation.Option{conversation.WithPacing(cfg.Pacing.ToPacing())}
	if cfg.Pacing.Instant {
		opts = append(opts, conversation.WithEffect(reveal.Instant{}))
	}
	return opts
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
