package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libinsight/ezingest/internal/engine"
	"github.com/libinsight/ezingest/internal/logging"
	"github.com/libinsight/ezingest/internal/models"
	"github.com/libinsight/ezingest/internal/parser"
	"github.com/libinsight/ezingest/internal/repository"
)

const logType = "ezproxy_logs"

const validLine = `192.0.2.5 - jdoe [01/Jan/2020:10:00:00 +0000] "GET /resource HTTP/1.1" 200 1234 SESSION1 http://ref - - - ABCDEFGHIJKLMNOPQRSTUV`

func writeLogFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(validLine+"\n"), 0o644))
	return path
}

func newTestDriver(repo repository.Repository) *Driver {
	log := logging.Default()
	eng := engine.New(repo, 100, true, log)
	registry := parser.NewRegistry(parser.NewEZProxyParser(logType))
	return New(repo, eng, registry, log)
}

func TestRun_ProcessesNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "ezproxy.log.1")
	writeLogFile(t, dir, filepath.Join("2020", "ezproxy.log.2"))

	repo := repository.NewInMemoryRepository()
	d := newTestDriver(repo)

	sources := []models.SourceConfig{{LogDirectory: dir, LogType: logType}}
	require.NoError(t, d.Run(context.Background(), sources))

	// Both files, including the nested one, got exactly one valid run.
	runs := repo.Runs()
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.True(t, run.Valid)
		assert.Equal(t, int64(1), run.NumOfLogs)
	}
}

func TestRun_SkipsProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeLogFile(t, dir, "ezproxy.log.1")

	repo := repository.NewInMemoryRepository()
	require.NoError(t, repo.RecordRun(context.Background(), &models.ProcessingRun{
		ID:                  "prior",
		FilePath:            path,
		LogType:             logType,
		ProcessingStartTime: time.Now().Add(-time.Hour),
		ProcessingEndTime:   time.Now().Add(-time.Hour),
		Valid:               true,
	}))

	d := newTestDriver(repo)
	sources := []models.SourceConfig{{LogDirectory: dir, LogType: logType}}
	require.NoError(t, d.Run(context.Background(), sources))

	// The skip happened before the engine ran: no new ledger rows, no data.
	assert.Len(t, repo.Runs(), 1)
	assert.Empty(t, repo.RecordsForFile(logType, path))
}

func TestRun_RetriesInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeLogFile(t, dir, "ezproxy.log.1")

	repo := repository.NewInMemoryRepository()
	msg := "boom"
	require.NoError(t, repo.RecordRun(context.Background(), &models.ProcessingRun{
		ID:                  "prior",
		FilePath:            path,
		LogType:             logType,
		ProcessingStartTime: time.Now().Add(-time.Hour),
		ProcessingEndTime:   time.Now().Add(-time.Hour),
		Valid:               false,
		Error:               &msg,
	}))

	d := newTestDriver(repo)
	sources := []models.SourceConfig{{LogDirectory: dir, LogType: logType}}
	require.NoError(t, d.Run(context.Background(), sources))

	// The previously failed file was retried and promoted.
	runs := repo.Runs()
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Valid)
}

func TestRun_MissingDirectoryDoesNotAbortSiblings(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "ezproxy.log.1")

	repo := repository.NewInMemoryRepository()
	d := newTestDriver(repo)

	sources := []models.SourceConfig{
		{LogDirectory: filepath.Join(dir, "missing"), LogType: logType},
		{LogDirectory: dir, LogType: logType},
	}
	require.NoError(t, d.Run(context.Background(), sources))

	assert.Len(t, repo.Runs(), 1)
}

func TestRun_UnknownLogType(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	d := newTestDriver(repo)

	sources := []models.SourceConfig{{LogDirectory: t.TempDir(), LogType: "unknown"}}
	err := d.Run(context.Background(), sources)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parser registered")
}

func TestRun_CancellationStopsRun(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "ezproxy.log.1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := repository.NewInMemoryRepository()
	d := newTestDriver(repo)

	sources := []models.SourceConfig{{LogDirectory: dir, LogType: logType}}
	err := d.Run(ctx, sources)
	require.ErrorIs(t, err, context.Canceled)

	// Nothing was recorded for the cancelled attempt.
	assert.Empty(t, repo.Runs())
}
