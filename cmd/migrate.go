package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite all issue files at the current schema version",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.ForceMigrate()
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"migrated": n})
		} else if !quiet {
			fmt.Printf("Rewrote %d issue(s)\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
