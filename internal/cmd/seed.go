package cmd

import (
	"github.com/spf13/cobra"

	"github.com/libinsight/ezingest/internal/seeder"
	"github.com/libinsight/ezingest/pkg/output"
)

var (
	seedFiles   int
	seedLines   int
	seedInvalid float64
	seedSeed    int64
)

var seedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "Generate sample ezproxy log files",
	Long:  `Writes realistic ezproxy-format log files for local pipeline testing.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := seeder.Generate(args[0], seeder.Options{
			Files:        seedFiles,
			LinesPerFile: seedLines,
			InvalidRatio: seedInvalid,
			Seed:         seedSeed,
		})
		if err != nil {
			return err
		}

		for _, p := range paths {
			output.Info("wrote %s", p)
		}
		output.Success("generated %d files", len(paths))
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedFiles, "files", 1, "number of files to generate")
	seedCmd.Flags().IntVar(&seedLines, "lines", 1000, "lines per file")
	seedCmd.Flags().Float64Var(&seedInvalid, "invalid-ratio", 0.05, "fraction of malformed lines")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed (0 = random)")
	rootCmd.AddCommand(seedCmd)
}
