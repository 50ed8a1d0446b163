package cmd

import (
	"os"

	"github.com/braid-dev/brd/internal/format"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show issue details",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := s.Load(); err != nil {
			return err
		}
		id, err := s.ResolveID(args[0])
		if err != nil {
			return err
		}
		issue := s.Issues()[id]

		if jsonOut {
			return format.JSONSingle(os.Stdout, issue)
		}
		depStates := make(map[string]string, len(issue.Deps))
		for _, d := range issue.Deps {
			if dep, ok := s.Issues()[d]; ok {
				depStates[d] = string(dep.Status)
			} else {
				depStates[d] = "missing"
			}
		}
		format.Detail(os.Stdout, issue, depStates)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
