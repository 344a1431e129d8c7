package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLogPrefix = "wax-daemon-"
	runLogSuffix = ".log"
	runIDLayout  = "20060102T150405.000Z"
)

// RunLogPath names the log file for one daemon run started at now.
func RunLogPath(dir string, now time.Time) string {
	return filepath.Join(dir, runLogPrefix+now.UTC().Format(runIDLayout)+runLogSuffix)
}

// PointCurrentLog replaces pointer with a symlink to target, falling back to
// a hard link where symlinks are refused.
func PointCurrentLog(pointer, target string) error {
	if pointer == "" || target == "" {
		return nil
	}
	if err := os.Remove(pointer); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, pointer); err != nil {
		if linkErr := os.Link(target, pointer); linkErr != nil {
			return fmt.Errorf("link log pointer: %w", err)
		}
	}
	return nil
}

// PruneRunLogs deletes per-run daemon logs in dir whose modification time is
// older than retentionDays, never touching keep. Zero days keeps everything.
// Recording directories are not scanned: session logs stay until the user
// removes them.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, keep string) int {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep = filepath.Clean(keep)

	pruned := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, runLogPrefix) || !strings.HasSuffix(name, runLogSuffix) {
			continue
		}
		path := filepath.Join(dir, name)
		if path == keep {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "daemon log prune failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions on paths.log_dir"),
				String(FieldImpact, "old daemon log remains on disk"),
			)
			continue
		}
		pruned++
	}
	if pruned > 0 && logger != nil {
		logger.Info("old daemon logs pruned",
			Int("count", pruned),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return pruned
}
