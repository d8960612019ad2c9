package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libinsight/ezingest/internal/engine"
	"github.com/libinsight/ezingest/internal/parser"
	"github.com/libinsight/ezingest/pkg/output"
)

var processLogType string

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process a single log file",
	Long: `Parses and loads one file regardless of the ledger's skip check.
Useful for reprocessing a specific file after a fix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

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

		eng := engine.New(repo, cfg.Ingest.ChunkSize, cfg.Ingest.Production, log)
		p := parser.NewEZProxyParser(processLogType)

		run, err := eng.ProcessFile(ctx, args[0], processLogType, p)
		if err != nil {
			return err
		}

		if !run.Valid {
			return fmt.Errorf("processing failed: %s", *run.Error)
		}

		output.Success("%s: %d logs, %d invalid", run.FilePath, run.NumOfLogs, run.NumInvalid)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processLogType, "log-type", "ezproxy_logs", "destination log type / table")
	rootCmd.AddCommand(processCmd)
}
