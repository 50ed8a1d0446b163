package cmd

import (
	"os"

	"github.com/braid-dev/brd/internal/format"
	"github.com/braid-dev/brd/internal/graph"
	"github.com/spf13/cobra"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List open issues whose dependencies are all done",
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
		ready := g.Ready()

		if jsonOut {
			return format.JSON(os.Stdout, ready)
		}
		format.Table(os.Stdout, ready, nil)
		return nil
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List open issues waiting on unfinished dependencies",
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
		blocked := g.Blocked()

		if jsonOut {
			return format.JSON(os.Stdout, blocked)
		}
		format.Table(os.Stdout, blocked, func(string) bool { return true })
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(blockedCmd)
}
