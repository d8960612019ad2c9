package cmd

import (
	"github.com/spf13/cobra"

	"github.com/libinsight/ezingest/internal/config"
	"github.com/libinsight/ezingest/internal/syncer"
	"github.com/libinsight/ezingest/pkg/output"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy new source files into the staging archive",
	Long: `Scans the source root for files matching each configured pattern and
copies those newer than the archive watermark but older than one day. Without
--production the eligible copies are only printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := config.LoadSources(cfg.Ingest.Sources)
		if err != nil {
			return err
		}

		s := syncer.New(cfg.Ingest.Production, log)
		for _, src := range sources {
			copied, err := s.Sync(cfg.Sync.SourceRoot, cfg.Sync.ArchiveRoot, src.Pattern)
			if err != nil {
				output.Warn("sync errors for %s: %v", src.LogType, err)
			}
			for _, c := range copied {
				output.Info("%s -> %s (%s)", c.SourcePath, c.DestPath, c.ModTime.Format("2006/01/02 15:04:05"))
			}
			output.Success("%s: %d new files", src.LogType, len(copied))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
