package repository

import (
	"context"
	"errors"
	"regexp"

	"github.com/libinsight/ezingest/internal/models"
)

var (
	ErrInvalidLogType = errors.New("invalid log type identifier")
)

// logTypeRe restricts log types to safe SQL identifiers, since the log type
// doubles as the destination table name.
var logTypeRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidLogType reports whether logType is safe to use as a table name.
func ValidLogType(logType string) bool {
	return logTypeRe.MatchString(logType)
}

// Repository is the durable sink and processing ledger. It owns the per-file
// run history that drives skip/retry/promotion decisions. Failures are not
// retried at this layer; ledger integrity errors are fatal to the whole run.
type Repository interface {
	// ProcessedFiles returns every file path with at least one valid run.
	ProcessedFiles(ctx context.Context) (map[string]struct{}, error)
	// InvalidFiles returns every file path with at least one failed run.
	InvalidFiles(ctx context.Context) (map[string]struct{}, error)
	// RecordRun appends one ledger row; zero record counts are allowed.
	RecordRun(ctx context.Context, run *models.ProcessingRun) error
	// PurgeStaleInvalidRuns deletes failed-run rows for path after the file
	// has been reprocessed successfully.
	PurgeStaleInvalidRuns(ctx context.Context, path string) error
	// PurgeFileRecords deletes all valid and invalid data rows tagged with
	// path, atomically. Used for rollback of a partial attempt.
	PurgeFileRecords(ctx context.Context, logType, path string) error
	// InsertBatch appends one parsed batch, both partitions in one
	// transaction.
	InsertBatch(ctx context.Context, logType string, records []models.LogRecord, invalid []models.InvalidRecord) error
	// Close releases the underlying connection handle.
	Close() error
}
