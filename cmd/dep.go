package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/braid-dev/brd/internal/format"
	"github.com/braid-dev/brd/internal/graph"
	"github.com/spf13/cobra"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage dependencies between issues",
}

var depAddCmd = &cobra.Command{
	Use:   "add <issue> <depends-on>",
	Short: "Add dependency (issue depends on depends-on)",
	Args:  usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.DepAdd(args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID, "deps": issue.Deps})
		} else if !quiet {
			fmt.Printf("%s now depends on %s\n", args[0], args[1])
		}
		return nil
	},
}

var depRmCmd = &cobra.Command{
	Use:   "rm <issue> <depends-on>",
	Short: "Remove dependency",
	Args:  usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		issue, err := s.DepRm(args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"id": issue.ID, "deps": issue.Deps})
		} else if !quiet {
			fmt.Printf("%s no longer depends on %s\n", args[0], args[1])
		}
		return nil
	},
}

var depListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "List dependencies of an issue",
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
		g := graph.Build(s.Issues())

		if jsonOut {
			deps := issue.Deps
			if deps == nil {
				deps = []string{}
			}
			dependents := make([]string, 0)
			for _, d := range g.Dependents(id) {
				dependents = append(dependents, d.ID)
			}
			okJSON(map[string]any{"id": id, "deps": deps, "dependents": dependents})
			return nil
		}

		if len(issue.Deps) > 0 {
			fmt.Printf("%s depends on:\n", id)
			for _, depID := range issue.Deps {
				dep, ok := s.Issues()[depID]
				if !ok {
					fmt.Printf("  %s (missing)\n", depID)
					continue
				}
				format.Short(os.Stdout, dep)
			}
		}
		if dependents := g.Dependents(id); len(dependents) > 0 {
			fmt.Printf("%s blocks:\n", id)
			for _, d := range dependents {
				format.Short(os.Stdout, d)
			}
		}
		if len(issue.Deps) == 0 && len(g.Dependents(id)) == 0 {
			fmt.Printf("%s has no dependencies\n", id)
		}
		return nil
	},
}

var depCyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Detect dependency cycles",
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
		cycles := g.DetectCycles()

		if jsonOut {
			if cycles == nil {
				cycles = [][]string{}
			}
			okJSON(map[string]any{"cycles": cycles})
			return nil
		}
		if len(cycles) == 0 {
			fmt.Println("No dependency cycles found.")
			return nil
		}
		for i, cycle := range cycles {
			fmt.Printf("Cycle %d: %s\n", i+1, strings.Join(cycle, " -> "))
		}
		return nil
	},
}

func init() {
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRmCmd)
	depCmd.AddCommand(depListCmd)
	depCmd.AddCommand(depCyclesCmd)
	rootCmd.AddCommand(depCmd)
}
