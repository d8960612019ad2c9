package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/libinsight/ezingest/internal/models"
)

// InMemoryRepository implements Repository for tests and dry-run inspection.
type InMemoryRepository struct {
	mu      sync.RWMutex
	runs    []models.ProcessingRun
	records map[string][]models.LogRecord // keyed by log type
	invalid []models.InvalidRecord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string][]models.LogRecord),
	}
}

func (r *InMemoryRepository) ProcessedFiles(ctx context.Context) (map[string]struct{}, error) {
	return r.filePaths(true), nil
}

func (r *InMemoryRepository) InvalidFiles(ctx context.Context) (map[string]struct{}, error) {
	return r.filePaths(false), nil
}

func (r *InMemoryRepository) filePaths(valid bool) map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := map[string]struct{}{}
	for _, run := range r.runs {
		if run.Valid == valid {
			paths[run.FilePath] = struct{}{}
		}
	}
	return paths
}

func (r *InMemoryRepository) RecordRun(ctx context.Context, run *models.ProcessingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, *run)
	return nil
}

func (r *InMemoryRepository) PurgeStaleInvalidRuns(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.runs[:0]
	for _, run := range r.runs {
		if run.FilePath == path && !run.Valid {
			continue
		}
		kept = append(kept, run)
	}
	r.runs = kept
	return nil
}

func (r *InMemoryRepository) PurgeFileRecords(ctx context.Context, logType, path string) error {
	if !ValidLogType(logType) {
		return fmt.Errorf("%w: %q", ErrInvalidLogType, logType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[logType][:0]
	for _, rec := range r.records[logType] {
		if rec.FilePath != path {
			kept = append(kept, rec)
		}
	}
	r.records[logType] = kept

	keptInvalid := r.invalid[:0]
	for _, rec := range r.invalid {
		if rec.FilePath != path {
			keptInvalid = append(keptInvalid, rec)
		}
	}
	r.invalid = keptInvalid
	return nil
}

func (r *InMemoryRepository) InsertBatch(ctx context.Context, logType string, records []models.LogRecord, invalid []models.InvalidRecord) error {
	if !ValidLogType(logType) {
		return fmt.Errorf("%w: %q", ErrInvalidLogType, logType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[logType] = append(r.records[logType], records...)
	r.invalid = append(r.invalid, invalid...)
	return nil
}

func (r *InMemoryRepository) Close() error {
	return nil
}

// Runs returns a snapshot of the recorded ledger rows.
func (r *InMemoryRepository) Runs() []models.ProcessingRun {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ProcessingRun, len(r.runs))
	copy(out, r.runs)
	return out
}

// RecordsForFile returns the stored valid records tagged with path.
func (r *InMemoryRepository) RecordsForFile(logType, path string) []models.LogRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.LogRecord
	for _, rec := range r.records[logType] {
		if rec.FilePath == path {
			out = append(out, rec)
		}
	}
	return out
}

// InvalidForFile returns the stored invalid records tagged with path.
func (r *InMemoryRepository) InvalidForFile(path string) []models.InvalidRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.InvalidRecord
	for _, rec := range r.invalid {
		if rec.FilePath == path {
			out = append(out, rec)
		}
	}
	return out
}
