package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogDir is the subdirectory of the log directory holding per-run logs.
const RunLogDir = "runs"

// RunLog is a JSON log file dedicated to one batch run. Tee it into the main
// logger with TeeLogger so the run can be inspected on its own later.
type RunLog struct {
	Path    string
	file    *os.File
	handler slog.Handler
}

// OpenRunLog creates <logDir>/runs/<timestamp>-<runID>.log.
func OpenRunLog(logDir, runID, level string, started time.Time) (*RunLog, error) {
	if strings.TrimSpace(logDir) == "" {
		return nil, fmt.Errorf("open run log: log directory is empty")
	}
	dir := filepath.Join(logDir, RunLogDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure run log dir: %w", err)
	}
	name := started.UTC().Format("20060102T150405Z") + "-" + runID + ".log"
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	lvl := parseLevel(level)
	return &RunLog{
		Path:    path,
		file:    file,
		handler: newJSONHandler(file, lvl, false),
	}, nil
}

// Handler returns the JSON handler writing to the run log.
func (r *RunLog) Handler() slog.Handler {
	if r == nil {
		return nil
	}
	return r.handler
}

// Close flushes and closes the run log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// PruneRunLogs deletes run logs below logDir last written more than
// retentionDays ago and returns how many were removed. keep is never removed.
// retentionDays <= 0 keeps everything.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, keep string) int {
	if retentionDays <= 0 || strings.TrimSpace(logDir) == "" {
		return 0
	}
	paths, err := filepath.Glob(filepath.Join(logDir, RunLogDir, "*.log"))
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, path := range paths {
		if keep != "" && filepath.Clean(path) == filepath.Clean(keep) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "old run log could not be removed", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldImpact, "old run log remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Debug("old run logs removed", Int("removed", removed), Int("retention_days", retentionDays))
	}
	return removed
}
