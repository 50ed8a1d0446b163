package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <id> <field> <value>",
	Short: "Edit a single issue field",
	Long: "Edit one field of an issue. Fields: priority, status, type, owner, title, tag.\n" +
		"Use \"-\" to clear type or owner; prefix a tag with \"-\" to remove it.",
	Args: usageArgs(cobra.ExactArgs(3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.Set(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID})
		} else if !quiet {
			fmt.Printf("Updated %s %s\n", issue.ID, args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
