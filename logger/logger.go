// Package logger is the process-wide logger: slog records rendered by a
// charmbracelet/log handler, with terminal output the TUI can borrow.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// Config describes logger settings.
type Config struct {
	Enabled bool
	Level   string
	Stdout  bool   // log to stderr even when a file is set
	File    string // relative paths resolve against the config dir
}

var (
	mu       sync.RWMutex
	current  *slog.Logger // nil drops every record
	settings Config
	file     *os.File
	borrowed io.Writer // set between Intercept and Restore
)

// Init applies cfg. It may be called again; the previous log file is closed.
func Init(cfg Config, configDir string) error {
	mu.Lock()
	defer mu.Unlock()

	settings = cfg
	if file != nil {
		file.Close()
		file = nil
	}

	var err error
	if cfg.Enabled && cfg.File != "" {
		file, err = openLogFile(resolve(cfg.File, configDir))
	}
	reset()
	return err
}

// Intercept sends terminal output to w until Restore. File output continues.
func Intercept(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	borrowed = w
	reset()
}

// Restore gives terminal output back to stderr.
func Restore() {
	mu.Lock()
	defer mu.Unlock()
	borrowed = nil
	reset()
}

// reset rebuilds current from the settings. mu must be held.
func reset() {
	if !settings.Enabled {
		current = nil
		return
	}

	var out []io.Writer
	switch {
	case borrowed != nil:
		out = append(out, borrowed)
	case settings.Stdout || file == nil:
		out = append(out, os.Stderr)
	}
	if file != nil {
		out = append(out, file)
	}

	current = slog.New(charmlog.NewWithOptions(io.MultiWriter(out...), charmlog.Options{
		Level:           parseLevel(settings.Level),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	}))
}

func Debug(msg string, args ...any) { log(slog.LevelDebug, msg, args...) }
func Info(msg string, args ...any)  { log(slog.LevelInfo, msg, args...) }
func Warn(msg string, args ...any)  { log(slog.LevelWarn, msg, args...) }
func Error(msg string, args ...any) { log(slog.LevelError, msg, args...) }

func log(level slog.Level, msg string, args ...any) {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		l.Log(context.Background(), level, msg, args...)
	}
}

func parseLevel(level string) charmlog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return charmlog.DebugLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// resolve expands ~ and anchors relative paths at dir.
func resolve(path, dir string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
