package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libinsight/ezingest/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// The pipeline is sequential; a small pool is enough.
	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// ProcessedFiles returns every file path with at least one valid run.
func (r *PostgresRepository) ProcessedFiles(ctx context.Context) (map[string]struct{}, error) {
	return r.filePaths(ctx, true)
}

// InvalidFiles returns every file path with at least one failed run.
func (r *PostgresRepository) InvalidFiles(ctx context.Context) (map[string]struct{}, error) {
	return r.filePaths(ctx, false)
}

func (r *PostgresRepository) filePaths(ctx context.Context, valid bool) (map[string]struct{}, error) {
	query := `SELECT DISTINCT file_path FROM processing_time WHERE valid = $1`

	rows, err := r.pool.Query(ctx, query, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing ledger: %w", err)
	}
	defer rows.Close()

	paths := map[string]struct{}{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths[p] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return paths, nil
}

// RecordRun appends one ledger row.
func (r *PostgresRepository) RecordRun(ctx context.Context, run *models.ProcessingRun) error {
	query := `
		INSERT INTO processing_time (id, file_path, log_type, processing_start_time,
			processing_end_time, valid, num_of_logs, num_invalid, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.FilePath, run.LogType, run.ProcessingStartTime,
		run.ProcessingEndTime, run.Valid, run.NumOfLogs, run.NumInvalid, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record processing run: %w", err)
	}

	return nil
}

// PurgeStaleInvalidRuns deletes failed-run ledger rows for path.
func (r *PostgresRepository) PurgeStaleInvalidRuns(ctx context.Context, path string) error {
	query := `DELETE FROM processing_time WHERE file_path = $1 AND valid = false`

	if _, err := r.pool.Exec(ctx, query, path); err != nil {
		return fmt.Errorf("failed to purge stale invalid runs: %w", err)
	}

	return nil
}

// PurgeFileRecords deletes every data row tagged with path from the log
// table and invalid_logs in one transaction, so a rollback cannot leave a
// partial delete behind.
func (r *PostgresRepository) PurgeFileRecords(ctx context.Context, logType, path string) error {
	if !ValidLogType(logType) {
		return fmt.Errorf("%w: %q", ErrInvalidLogType, logType)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	logDelete := fmt.Sprintf(`DELETE FROM %s WHERE file_path = $1`, pgx.Identifier{logType}.Sanitize())
	if _, err := tx.Exec(ctx, logDelete, path); err != nil {
		return fmt.Errorf("failed to purge log records: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invalid_logs WHERE file_path = $1`, path); err != nil {
		return fmt.Errorf("failed to purge invalid records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit purge: %w", err)
	}

	return nil
}

var logColumns = []string{
	"ip_address", "username", "click_time", "request", "http_code",
	"library_session", "referrer", "user_agent", "county", "state", "city",
	"ezproxy_session", "file_path", "processing_start_time",
}

var invalidColumns = []string{
	"raw_line", "log_type", "file_path", "processing_start_time",
}

// InsertBatch appends one parsed batch, both partitions in one transaction.
// Loads use the COPY protocol to keep large batches cheap.
func (r *PostgresRepository) InsertBatch(ctx context.Context, logType string, records []models.LogRecord, invalid []models.InvalidRecord) error {
	if !ValidLogType(logType) {
		return fmt.Errorf("%w: %q", ErrInvalidLogType, logType)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(records) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{logType}, logColumns,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				rec := records[i]
				return []any{
					rec.IPAddress, rec.Username, rec.ClickTime, rec.Request,
					rec.HTTPCode, rec.LibrarySession, rec.Referrer, rec.UserAgent,
					rec.County, rec.State, rec.City, rec.EZProxySession,
					rec.FilePath, rec.ProcessingStartTime,
				}, nil
			}))
		if err != nil {
			return fmt.Errorf("failed to copy log records: %w", err)
		}
	}

	if len(invalid) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"invalid_logs"}, invalidColumns,
			pgx.CopyFromSlice(len(invalid), func(i int) ([]any, error) {
				rec := invalid[i]
				return []any{rec.RawLine, rec.LogType, rec.FilePath, rec.ProcessingStartTime}, nil
			}))
		if err != nil {
			return fmt.Errorf("failed to copy invalid records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
