package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an issue file",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		s, err := openStore()
		if err != nil {
			return err
		}
		id, err := s.Remove(args[0], force)
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": id})
		} else if !quiet {
			fmt.Printf("Removed %s\n", id)
		}
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolP("force", "f", false, "remove even if the issue is doing")
	rootCmd.AddCommand(rmCmd)
}
