package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libinsight/ezingest/internal/models"
)

func strPtr(s string) *string { return &s }

func testRun(path string, valid bool) *models.ProcessingRun {
	run := &models.ProcessingRun{
		ID:                  path + "-run",
		FilePath:            path,
		LogType:             "ezproxy_logs",
		ProcessingStartTime: time.Now().Add(-time.Minute),
		ProcessingEndTime:   time.Now(),
		Valid:               valid,
	}
	if !valid {
		run.Error = strPtr("boom")
	}
	return run
}

func TestInMemory_LedgerQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.RecordRun(ctx, testRun("/logs/a", true)))
	require.NoError(t, repo.RecordRun(ctx, testRun("/logs/b", false)))

	processed, err := repo.ProcessedFiles(ctx)
	require.NoError(t, err)
	assert.Contains(t, processed, "/logs/a")
	assert.NotContains(t, processed, "/logs/b")

	invalid, err := repo.InvalidFiles(ctx)
	require.NoError(t, err)
	assert.Contains(t, invalid, "/logs/b")
	assert.NotContains(t, invalid, "/logs/a")
}

func TestInMemory_PurgeStaleInvalidRuns(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.RecordRun(ctx, testRun("/logs/a", false)))
	require.NoError(t, repo.RecordRun(ctx, testRun("/logs/a", true)))
	require.NoError(t, repo.RecordRun(ctx, testRun("/logs/b", false)))

	require.NoError(t, repo.PurgeStaleInvalidRuns(ctx, "/logs/a"))

	runs := repo.Runs()
	require.Len(t, runs, 2)
	for _, run := range runs {
		if run.FilePath == "/logs/a" {
			assert.True(t, run.Valid)
		}
	}

	// Other files' failed runs are untouched.
	invalid, err := repo.InvalidFiles(ctx)
	require.NoError(t, err)
	assert.Contains(t, invalid, "/logs/b")
}

func TestInMemory_PurgeFileRecords(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	now := time.Now()
	records := []models.LogRecord{
		{Request: "GET /a", FilePath: "/logs/a", ProcessingStartTime: now},
		{Request: "GET /b", FilePath: "/logs/b", ProcessingStartTime: now},
	}
	invalid := []models.InvalidRecord{
		{RawLine: "junk", LogType: "ezproxy_logs", FilePath: "/logs/a", ProcessingStartTime: now},
	}
	require.NoError(t, repo.InsertBatch(ctx, "ezproxy_logs", records, invalid))

	require.NoError(t, repo.PurgeFileRecords(ctx, "ezproxy_logs", "/logs/a"))

	assert.Empty(t, repo.RecordsForFile("ezproxy_logs", "/logs/a"))
	assert.Empty(t, repo.InvalidForFile("/logs/a"))
	assert.Len(t, repo.RecordsForFile("ezproxy_logs", "/logs/b"), 1)
}

func TestInMemory_RejectsBadLogType(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	err := repo.InsertBatch(ctx, "bad type", nil, nil)
	require.ErrorIs(t, err, ErrInvalidLogType)

	err = repo.PurgeFileRecords(ctx, "1starts_with_digit", "/logs/a")
	require.ErrorIs(t, err, ErrInvalidLogType)
}

func TestValidLogType(t *testing.T) {
	tests := []struct {
		logType string
		want    bool
	}{
		{"ezproxy_logs", true},
		{"access_logs", true},
		{"a", true},
		{"", false},
		{"Ezproxy", false},
		{"1logs", false},
		{"logs; drop table", false},
		{`logs"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.logType, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidLogType(tt.logType))
		})
	}
}
