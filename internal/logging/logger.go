package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vox2ksh/internal/config"
)

// LogFileName is the shared log written below the configured log directory.
const LogFileName = "vox2ksh.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives output when set; otherwise records go to stderr.
	Writer io.Writer
	// Files are appended to in addition to Writer or stderr.
	Files []string
	// Source adds file:line to every record, not only debug ones.
	Source bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))

	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if len(opts.Files) > 0 {
		files, err := openLogFiles(opts.Files)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(append([]io.Writer{out}, files...)...)
	}
	source := opts.Source || level.Level() <= slog.LevelDebug

	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		return slog.New(newConsoleHandler(out, level, source)), nil
	case "json":
		return slog.New(newJSONHandler(out, level, source)), nil
	}
	return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
}

// NewFromConfig creates a logger using application config defaults. Output
// goes to stderr so converted charts can be piped from stdout, and to the
// shared log file when a log directory is configured.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if cfg.Paths.LogDir != "" {
		opts.Files = []string{filepath.Join(cfg.Paths.LogDir, LogFileName)}
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func openLogFiles(paths []string) ([]io.Writer, error) {
	var (
		writers []io.Writer
		seen    = map[string]bool{}
	)
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", p, err)
		}
		writers = append(writers, f)
	}
	return writers, nil
}
