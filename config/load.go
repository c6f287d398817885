package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, read from the process environment after any .env
// files have been loaded.
const (
	EnvHome     = "CHATFOLIO_HOME"
	EnvScript   = "CHATFOLIO_SCRIPT"
	EnvWebAddr  = "CHATFOLIO_WEB_ADDR"
	EnvLogLevel = "CHATFOLIO_LOG_LEVEL"
)

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chatfolio"), nil
}

// ConfigPath returns the path of config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads config.yaml, falling back to defaults when it does not exist,
// then applies .env and environment overrides.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	if err := loadEnvFiles(filepath.Join(dir, envFileName), envFileName); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if cfg.Script != "" && !filepath.IsAbs(cfg.Script) {
		cfg.Script = filepath.Join(dir, cfg.Script)
	}
	return cfg, nil
}

// Save writes the config to config.yaml, creating the directory.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WorkspacePath returns the directory log files are resolved against.
func (c *Config) WorkspacePath() (string, error) {
	return ConfigDir()
}

// loadEnvFiles loads each existing .env file. godotenv never overrides
// variables that are already set, so the real environment wins.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvScript)); v != "" {
		c.Script = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWebAddr)); v != "" {
		c.Web.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
}
