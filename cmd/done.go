package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an issue done",
	Long: "Mark an issue done. Design issues require --results naming the issues " +
		"their outcome produced; those IDs are appended to the deps of everything " +
		"that depended on the design issue.",
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		results, _ := cmd.Flags().GetStringSlice("results")

		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.Done(args[0], force, results)
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID})
		} else if !quiet {
			fmt.Printf("Done %s: %s\n", issue.ID, issue.Title)
		}
		return nil
	},
}

func init() {
	doneCmd.Flags().BoolP("force", "f", false, "complete a design issue without results")
	doneCmd.Flags().StringSlice("results", nil, "issue IDs produced by this design issue")
	rootCmd.AddCommand(doneCmd)
}
