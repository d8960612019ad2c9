package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libinsight/ezingest/internal/config"
	"github.com/libinsight/ezingest/internal/driver"
	"github.com/libinsight/ezingest/internal/engine"
	"github.com/libinsight/ezingest/internal/syncer"
	"github.com/libinsight/ezingest/pkg/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synchronize and process all configured log sources",
	Long: `Runs the full pipeline: migrate the schema, copy new source files into
the archive, then parse and load every file the ledger has not yet marked as
processed. Previously failed files are retried; cancelled files are rolled
back and left for the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		sources, err := config.LoadSources(cfg.Ingest.Sources)
		if err != nil {
			return err
		}

		if cfg.Ingest.Production {
			if err := runMigrations(); err != nil {
				return err
			}
		}

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		if cfg.Sync.SourceRoot != "" && cfg.Sync.ArchiveRoot != "" {
			s := syncer.New(cfg.Ingest.Production, log)
			for _, src := range sources {
				copied, err := s.Sync(cfg.Sync.SourceRoot, cfg.Sync.ArchiveRoot, src.Pattern)
				if err != nil {
					output.Warn("sync errors for %s: %v", src.LogType, err)
				}
				output.Info("%s: %d new files", src.LogType, len(copied))
			}
		}

		eng := engine.New(repo, cfg.Ingest.ChunkSize, cfg.Ingest.Production, log)
		d := driver.New(repo, eng, buildRegistry(sources), log)

		if err := d.Run(ctx, sources); err != nil {
			if errors.Is(err, context.Canceled) {
				output.Warn("run interrupted; in-flight file rolled back")
				return err
			}
			return fmt.Errorf("run failed: %w", err)
		}

		output.Success("run complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
