package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"partcat/internal/logging"
)

// SweepResult reports which run directories a cleanup removed.
type SweepResult struct {
	Removed []string
	Failed  []SweepFailure
}

// SweepFailure is a run directory that could not be removed.
type SweepFailure struct {
	Path string
	Err  error
}

// DirInfo describes one run directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanStale removes run directories under stagingDir last modified more
// than maxAge ago.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) SweepResult {
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, stagingDir, "stale", logger, func(d DirInfo) bool {
		return d.ModTime.Before(cutoff)
	})
}

// CleanOrphaned removes every run directory whose name is not in activeRuns,
// compared case-insensitively. The caller holds the project lock.
func CleanOrphaned(ctx context.Context, stagingDir string, activeRuns map[string]struct{}, logger *slog.Logger) SweepResult {
	return sweep(ctx, stagingDir, "orphaned", logger, func(d DirInfo) bool {
		_, active := activeRuns[strings.ToLower(d.Name)]
		return !active
	})
}

// ListDirectories returns every run directory under stagingDir. A missing
// staging root is not an error.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	dirs, err := runDirs(stagingDir)
	if err != nil {
		return nil, err
	}
	for i := range dirs {
		dirs[i].Size = treeSize(dirs[i].Path)
	}
	return dirs, nil
}

func sweep(ctx context.Context, stagingDir, kind string, logger *slog.Logger, remove func(DirInfo) bool) SweepResult {
	var result SweepResult
	if logger == nil {
		logger = logging.NewNop()
	}

	dirs, err := runDirs(stagingDir)
	if err != nil {
		result.Failed = append(result.Failed, SweepFailure{Path: stagingDir, Err: err})
		return result
	}
	for _, d := range dirs {
		if ctx.Err() != nil {
			break
		}
		if !remove(d) {
			continue
		}
		if err := os.RemoveAll(d.Path); err != nil {
			result.Failed = append(result.Failed, SweepFailure{Path: d.Path, Err: err})
			logging.WarnWithContext(logger, "staging area not removed", "staging_cleanup_failed",
				logging.String("path", d.Path),
				logging.String("kind", kind),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the project state directory"),
				logging.String(logging.FieldImpact, "abandoned import files remain in the project"),
			)
			continue
		}
		result.Removed = append(result.Removed, d.Path)
		logger.Info("staging area removed",
			logging.String("path", d.Path),
			logging.String("kind", kind),
			logging.Duration("age", time.Since(d.ModTime).Round(time.Second)),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

// runDirs lists the subdirectories of stagingDir without their sizes. Files
// such as lock files are skipped, as are entries whose metadata vanished
// mid-listing.
func runDirs(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(stagingDir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return dirs, nil
}

func treeSize(root string) int64 {
	var size int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
