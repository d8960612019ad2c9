package syncer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libinsight/ezingest/internal/logging"
)

func writeFile(t *testing.T, path string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("log line\n"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func newTestSyncer(production bool, now time.Time) *Syncer {
	s := New(production, logging.Default())
	s.now = func() time.Time { return now }
	return s
}

func TestSync_WatermarkAndLag(t *testing.T) {
	now := time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC)
	source := t.TempDir()
	archive := t.TempDir()

	// Archived file sets the watermark to 2020-01-01.
	writeFile(t, filepath.Join(archive, "sub", "ezproxy.log.old"),
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))

	// Newer than the watermark and older than a day: eligible.
	writeFile(t, filepath.Join(source, "ezproxy.log.1"),
		time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC))
	// Older than the watermark: skipped.
	writeFile(t, filepath.Join(source, "ezproxy.log.2"),
		time.Date(2019, time.December, 1, 0, 0, 0, 0, time.UTC))
	// Modified today: still inside the one-day lag, skipped.
	writeFile(t, filepath.Join(source, "ezproxy.log.3"), now)

	s := newTestSyncer(true, now)
	copied, err := s.Sync(source, archive, "ezproxy")
	require.NoError(t, err)

	require.Len(t, copied, 1)
	assert.Equal(t, filepath.Join(source, "ezproxy.log.1"), copied[0].SourcePath)

	// The eligible file actually landed in the archive.
	data, err := os.ReadFile(filepath.Join(archive, "ezproxy.log.1"))
	require.NoError(t, err)
	assert.Equal(t, "log line\n", string(data))

	_, err = os.Stat(filepath.Join(archive, "ezproxy.log.2"))
	assert.True(t, os.IsNotExist(err))
}

func TestSync_EmptyArchiveUsesEpochWatermark(t *testing.T) {
	now := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")

	writeFile(t, filepath.Join(source, "ezproxy.log.2000"),
		time.Date(2000, time.June, 1, 0, 0, 0, 0, time.UTC))
	// Exactly at the epoch is not strictly newer, so not eligible.
	writeFile(t, filepath.Join(source, "ezproxy.log.epoch"),
		time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))

	s := newTestSyncer(true, now)
	copied, err := s.Sync(source, archive, "ezproxy")
	require.NoError(t, err)

	require.Len(t, copied, 1)
	assert.Equal(t, filepath.Join(source, "ezproxy.log.2000"), copied[0].SourcePath)

	// The archive directory tree was created before copying.
	_, err = os.Stat(archive)
	require.NoError(t, err)
}

func TestSync_DryRunCopiesNothing(t *testing.T) {
	now := time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC)
	source := t.TempDir()
	archive := t.TempDir()

	writeFile(t, filepath.Join(source, "ezproxy.log.1"),
		time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC))

	s := newTestSyncer(false, now)
	copied, err := s.Sync(source, archive, "ezproxy")
	require.NoError(t, err)

	// The eligible copy is reported but never executed.
	require.Len(t, copied, 1)
	_, err = os.Stat(filepath.Join(archive, "ezproxy.log.1"))
	assert.True(t, os.IsNotExist(err))
}

func TestSync_PatternFilter(t *testing.T) {
	now := time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC)
	source := t.TempDir()
	archive := t.TempDir()

	modTime := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(source, "ezproxy.log.1"), modTime)
	writeFile(t, filepath.Join(source, "access.log.1"), modTime)

	s := newTestSyncer(true, now)
	copied, err := s.Sync(source, archive, "ezproxy")
	require.NoError(t, err)

	require.Len(t, copied, 1)
	assert.Contains(t, copied[0].SourcePath, "ezproxy")
}

func TestSync_SkipsSubdirectories(t *testing.T) {
	now := time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC)
	source := t.TempDir()
	archive := t.TempDir()

	// The source scan is deliberately non-recursive.
	writeFile(t, filepath.Join(source, "nested", "ezproxy.log.1"),
		time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC))

	s := newTestSyncer(true, now)
	copied, err := s.Sync(source, archive, "ezproxy")
	require.NoError(t, err)
	assert.Empty(t, copied)
}

func TestSync_MissingSourceDirectory(t *testing.T) {
	s := newTestSyncer(true, time.Now())
	_, err := s.Sync(filepath.Join(t.TempDir(), "missing"), t.TempDir(), "ezproxy")
	require.Error(t, err)
}
