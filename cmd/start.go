package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Claim an issue and mark it doing",
	Long:  "Claim an issue for the current agent. With no ID, picks the highest-priority ready issue.",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		partial := ""
		if len(args) > 0 {
			partial = args[0]
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.Start(partial, force)
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID, "owner": issue.Owner})
		} else if !quiet {
			fmt.Printf("Started %s: %s (owner %s)\n", issue.ID, issue.Title, issue.Owner)
		} else {
			fmt.Println(issue.ID)
		}
		return nil
	},
}

func init() {
	startCmd.Flags().BoolP("force", "f", false, "take over an issue another agent is doing")
	rootCmd.AddCommand(startCmd)
}
