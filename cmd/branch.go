package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage the dedicated issues branch",
	Long: "Move issue storage onto a dedicated branch checked out in a shared " +
		"worktree, so issue updates stop touching feature-branch diffs.",
}

var branchEnableCmd = &cobra.Command{
	Use:   "enable [branch]",
	Short: "Move issues onto a dedicated branch",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch := "braid-issues"
		if len(args) > 0 {
			branch = args[0]
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		lagging, err := s.EnableIssuesBranch(branch)
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"branch": branch})
		} else if !quiet {
			fmt.Printf("Issues now live on branch %q\n", branch)
		}
		for _, wt := range lagging {
			fmt.Fprintf(os.Stderr, "warning: worktree %s (%s) is behind; run git pull there\n", wt.Path, wt.Branch)
		}
		return nil
	},
}

var branchDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Move issues back into the working tree",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		lagging, err := s.DisableIssuesBranch()
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(nil)
		} else if !quiet {
			fmt.Println("Issues moved back to .braid/issues in the working tree")
		}
		for _, wt := range lagging {
			fmt.Fprintf(os.Stderr, "warning: worktree %s (%s) is behind; run git pull there\n", wt.Path, wt.Branch)
		}
		return nil
	},
}

func init() {
	branchCmd.AddCommand(branchEnableCmd)
	branchCmd.AddCommand(branchDisableCmd)
	rootCmd.AddCommand(branchCmd)
}
