package cmd

import (
	"fmt"
	"os"

	"github.com/braid-dev/brd/internal/format"
	"github.com/braid-dev/brd/internal/graph"
	"github.com/braid-dev/brd/internal/model"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the issue `start` would pick",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := s.Load(); err != nil {
			return err
		}
		g := graph.Build(s.Issues())
		for _, issue := range g.Ready() {
			if issue.Type == model.TypeMeta {
				continue
			}
			if jsonOut {
				return format.JSONSingle(os.Stdout, issue)
			}
			format.Short(os.Stdout, issue)
			return nil
		}
		if jsonOut {
			okJSON(map[string]any{"id": nil})
		} else {
			fmt.Println("No ready issues.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nextCmd)
}
