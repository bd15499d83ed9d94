package workspace

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vodsub/internal/logging"
)

// DirInfo describes one run directory under the work root.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanupError pairs a directory path with the error that kept it on disk.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStaleResult reports what a sweep removed and what it could not.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// ListDirectories returns the run directories under root. Only directories
// named like a run ID are reported; anything else in the work root belongs
// to someone else. A missing root yields no entries.
func ListDirectories(root string) ([]DirInfo, error) {
	dirs, err := scanRunDirs(root)
	if err != nil {
		return nil, err
	}
	for i := range dirs {
		dirs[i].Size = treeSize(dirs[i].Path)
	}
	return dirs, nil
}

// CleanStale removes run directories under root last modified more than
// maxAge ago. They are left behind when a process dies before its deferred
// cleanup runs.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result CleanStaleResult

	dirs, err := scanRunDirs(root)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		return result
	}

	now := time.Now()
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		age := now.Sub(dir.ModTime)
		if age <= maxAge {
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			logging.WarnWithContext(logger, "stale workspace not removed", "workspace_cleanup_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		logger.Info("removed stale workspace",
			logging.String("path", dir.Path),
			logging.Duration("age", age),
			logging.String(logging.FieldEventType, "workspace_cleanup"),
		)
	}
	return result
}

func scanRunDirs(root string) ([]DirInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !isRunID(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(root, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return dirs, nil
}

func isRunID(name string) bool {
	_, err := uuid.Parse(name)
	return err == nil
}

// treeSize sums regular file sizes below path, skipping unreadable entries.
func treeSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
