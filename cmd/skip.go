package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var skipCmd = &cobra.Command{
	Use:   "skip <id>",
	Short: "Close an issue as will-not-do",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.Skip(args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID})
		} else if !quiet {
			fmt.Printf("Skipped %s: %s\n", issue.ID, issue.Title)
		}
		return nil
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a closed issue",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.Reopen(args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID})
		} else if !quiet {
			fmt.Printf("Reopened %s: %s\n", issue.ID, issue.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(reopenCmd)
}
