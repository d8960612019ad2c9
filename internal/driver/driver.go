package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/libinsight/ezingest/internal/engine"
	"github.com/libinsight/ezingest/internal/logging"
	"github.com/libinsight/ezingest/internal/models"
	"github.com/libinsight/ezingest/internal/parser"
	"github.com/libinsight/ezingest/internal/repository"
	"github.com/libinsight/ezingest/pkg/output"
)

// Driver walks the configured log sources and feeds every not-yet-processed
// file to the ingestion engine. Files with a valid ledger run are skipped;
// files with only failed runs are retried every invocation until they
// succeed or are fixed.
type Driver struct {
	repo     repository.Repository
	engine   *engine.Engine
	registry *parser.Registry
	log      *logging.Logger
}

// New creates a Driver.
func New(repo repository.Repository, eng *engine.Engine, registry *parser.Registry, log *logging.Logger) *Driver {
	return &Driver{
		repo:     repo,
		engine:   eng,
		registry: registry,
		log:      log,
	}
}

// Run processes every configured source in order. A single file's failure is
// recorded in the ledger and never aborts its siblings; cancellation and
// ledger failures stop the whole run.
func (d *Driver) Run(ctx context.Context, sources []models.SourceConfig) error {
	processed, err := d.repo.ProcessedFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	for _, src := range sources {
		p := d.registry.Find(src.LogType)
		if p == nil {
			return fmt.Errorf("no parser registered for log type %q", src.LogType)
		}

		files, err := listFiles(src.LogDirectory)
		if err != nil {
			// One unreadable source directory should not block the others.
			d.log.Error("failed to list log directory",
				"directory", src.LogDirectory, "error", err)
			output.Error("failed to list %s: %v", src.LogDirectory, err)
			continue
		}

		for _, path := range files {
			if _, ok := processed[path]; ok {
				d.log.Info("skipping processed file", "file", path)
				output.Info("existing log: %s", path)
				continue
			}

			run, err := d.engine.ProcessFile(ctx, path, src.LogType, p)
			if err != nil {
				return err
			}

			if run.Valid {
				output.Success("%s: %d logs, %d invalid", path, run.NumOfLogs, run.NumInvalid)
			} else {
				output.Error("%s failed: %s", path, *run.Error)
			}
		}
	}

	return nil
}

// listFiles returns every file under root, recursively.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
