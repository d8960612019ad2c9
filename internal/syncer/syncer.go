package syncer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/libinsight/ezingest/internal/logging"
)

// copyLag guards against copying a file that is still being written.
const copyLag = 24 * time.Hour

// watermarkEpoch is the watermark used when the archive is empty.
var watermarkEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Copied describes one source file the synchronizer copied (or, in dry-run
// mode, would have copied).
type Copied struct {
	SourcePath string
	DestPath   string
	ModTime    time.Time
}

// Syncer copies new log files from a source directory into the staging
// archive, gated by a modification-time watermark and a one-day lag.
type Syncer struct {
	production bool
	log        *logging.Logger
	now        func() time.Time
}

// New creates a Syncer. With production false, eligible copies are logged
// but never executed.
func New(production bool, log *logging.Logger) *Syncer {
	return &Syncer{
		production: production,
		log:        log,
		now:        time.Now,
	}
}

// Sync scans sourceRoot (non-recursive) for entries whose path contains
// pattern and copies the eligible ones into archiveRoot. A file is eligible
// iff its modification time is newer than the archive watermark and older
// than one day. Per-file copy failures are isolated; the scan continues and
// the failures come back aggregated.
func (s *Syncer) Sync(sourceRoot, archiveRoot, pattern string) ([]Copied, error) {
	watermark, err := s.watermark(archiveRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to compute archive watermark: %w", err)
	}

	entries, err := os.ReadDir(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list source directory: %w", err)
	}

	if err := os.MkdirAll(archiveRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	cutoff := s.now().Add(-copyLag)

	var copied []Copied
	var copyErrs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		sourcePath := filepath.Join(sourceRoot, entry.Name())
		if pattern != "" && !strings.Contains(sourcePath, pattern) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			copyErrs = append(copyErrs, fmt.Errorf("%s: %w", sourcePath, err))
			continue
		}

		modTime := info.ModTime()
		if !modTime.After(watermark) || !modTime.Before(cutoff) {
			continue
		}

		destPath := filepath.Join(archiveRoot, entry.Name())
		if !s.production {
			s.log.Info("dry run: would copy file",
				"source", sourcePath, "dest", destPath, "mod_time", modTime)
			copied = append(copied, Copied{SourcePath: sourcePath, DestPath: destPath, ModTime: modTime})
			continue
		}

		if err := copyFile(sourcePath, destPath); err != nil {
			copyErrs = append(copyErrs, fmt.Errorf("%s: %w", sourcePath, err))
			continue
		}

		s.log.Info("copied file", "source", sourcePath, "dest", destPath, "mod_time", modTime)
		copied = append(copied, Copied{SourcePath: sourcePath, DestPath: destPath, ModTime: modTime})
	}

	return copied, errors.Join(copyErrs...)
}

// watermark returns the newest modification time among archived files,
// walking the archive recursively. Empty or missing archives fall back to
// the fixed epoch.
func (s *Syncer) watermark(archiveRoot string) (time.Time, error) {
	watermark := watermarkEpoch

	err := filepath.WalkDir(archiveRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(watermark) {
			watermark = info.ModTime()
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return watermarkEpoch, nil
		}
		return time.Time{}, err
	}

	return watermark, nil
}

func copyFile(sourcePath, destPath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}
