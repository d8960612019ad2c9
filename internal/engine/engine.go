package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/libinsight/ezingest/internal/logging"
	"github.com/libinsight/ezingest/internal/models"
	"github.com/libinsight/ezingest/internal/parser"
	"github.com/libinsight/ezingest/internal/repository"
	"github.com/libinsight/ezingest/pkg/output"
)

// DefaultChunkSize bounds how many lines one batch may hold.
const DefaultChunkSize = 1000000

// Engine processes one log file at a time: streaming read in bounded
// batches, parse, load, and a final ledger write. A failed attempt rolls
// back every row the attempt wrote before the failure run is recorded; a
// cancelled attempt rolls back and records nothing.
type Engine struct {
	repo       repository.Repository
	chunkSize  int
	production bool
	log        *logging.Logger
	now        func() time.Time
}

// New creates an Engine. With production false nothing is written to the
// sink; batch summaries and the would-be run record are printed instead.
func New(repo repository.Repository, chunkSize int, production bool, log *logging.Logger) *Engine {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Engine{
		repo:       repo,
		chunkSize:  chunkSize,
		production: production,
		log:        log,
		now:        time.Now,
	}
}

// ProcessFile runs one attempt for path. It returns the finalized run for
// both successful and failed attempts; the error return is reserved for
// cancellation and ledger failures, which are fatal to the whole run.
func (e *Engine) ProcessFile(ctx context.Context, path, logType string, p parser.Parser) (*models.ProcessingRun, error) {
	if !repository.ValidLogType(logType) {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidLogType, logType)
	}

	wasInvalid, err := e.repo.InvalidFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	start := e.now().Truncate(time.Second)
	run := &models.ProcessingRun{
		ID:                  id.String(),
		FilePath:            path,
		LogType:             logType,
		ProcessingStartTime: start,
		Valid:               true,
	}

	e.log.Info("processing file", "file", path, "log_type", logType, "start", start)
	output.Info("%s: %s", path, start.Format("01/02/2006 15:04:05"))

	procErr := e.stream(ctx, run, p)
	if ctx.Err() != nil {
		// Cancelled attempts leave the file untouched and unrecorded so the
		// next run retries it from scratch.
		if err := e.rollback(ctx, logType, path); err != nil {
			return nil, err
		}
		return nil, ctx.Err()
	}

	if procErr != nil {
		if err := e.rollback(ctx, logType, path); err != nil {
			return nil, err
		}
		msg := procErr.Error()
		run.Valid = false
		run.Error = &msg
		e.log.Error("file processing failed", "file", path, "error", procErr)
	} else if _, ok := wasInvalid[path]; ok && e.production {
		// Promotion: the file used to be invalid, drop the stale failed runs.
		if err := e.repo.PurgeStaleInvalidRuns(ctx, path); err != nil {
			return nil, fmt.Errorf("failed to purge stale invalid runs: %w", err)
		}
	}

	run.ProcessingEndTime = e.now().Truncate(time.Second)

	if !e.production {
		printRun(run)
		return run, nil
	}

	if err := e.repo.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	return run, nil
}

// stream reads path batch by batch, parses, tags, and loads. It returns the
// first processing error; cancellation surfaces through ctx.
func (e *Engine) stream(ctx context.Context, run *models.ProcessingRun, p parser.Parser) error {
	f, err := os.Open(run.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	reader := newBatchReader(f, e.chunkSize)
	for {
		// Cooperative cancellation between batches, never mid-batch.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lines, err := reader.Next()
		if err != nil {
			return fmt.Errorf("failed to read log file: %w", err)
		}
		if len(lines) == 0 {
			return nil
		}

		valid, invalid := p.Parse(lines)
		for i := range valid {
			valid[i].FilePath = run.FilePath
			valid[i].ProcessingStartTime = run.ProcessingStartTime
		}
		for i := range invalid {
			invalid[i].FilePath = run.FilePath
			invalid[i].ProcessingStartTime = run.ProcessingStartTime
		}
		run.NumOfLogs += int64(len(valid))
		run.NumInvalid += int64(len(invalid))

		if !e.production {
			e.log.Info("dry run: parsed batch",
				"file", run.FilePath, "valid", len(valid), "invalid", len(invalid))
			continue
		}

		if err := e.repo.InsertBatch(ctx, run.LogType, valid, invalid); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to load batch: %w", err)
		}
	}
}

// rollback deletes every row this attempt wrote for the file. It runs even
// when ctx is already cancelled, so a cancelled attempt cannot leave
// partial data behind.
func (e *Engine) rollback(ctx context.Context, logType, path string) error {
	if !e.production {
		return nil
	}
	if err := e.repo.PurgeFileRecords(context.WithoutCancel(ctx), logType, path); err != nil {
		return fmt.Errorf("failed to roll back file records: %w", err)
	}
	return nil
}

// printRun surfaces the would-be ledger row during dry runs.
func printRun(run *models.ProcessingRun) {
	errText := ""
	if run.Error != nil {
		errText = *run.Error
	}
	t := output.NewTable([]string{"file_path", "log_type", "valid", "num_of_logs", "num_invalid", "error"})
	t.AddRow([]string{
		run.FilePath,
		run.LogType,
		fmt.Sprintf("%t", run.Valid),
		fmt.Sprintf("%d", run.NumOfLogs),
		fmt.Sprintf("%d", run.NumInvalid),
		errText,
	})
	t.Render()
}
