package cmd

import (
	"github.com/spf13/cobra"

	"github.com/libinsight/ezingest/pkg/output"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runMigrations(); err != nil {
			return err
		}
		output.Success("migrations complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
