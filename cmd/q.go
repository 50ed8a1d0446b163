package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var qCmd = &cobra.Command{
	Use:   "q [title]",
	Short: "Quick capture -- create issue, print only ID",
	Long:  "Create an issue and print only its ID to stdout, enabling ISSUE=$(brd q \"title\").",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := addOptsFromFlags(cmd, args)
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.Add(opts)
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID})
		} else {
			fmt.Println(issue.ID)
		}
		return nil
	},
}

func init() {
	addCreationFlags(qCmd)
	rootCmd.AddCommand(qCmd)
}
