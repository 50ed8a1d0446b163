package cmd

import (
	"fmt"
	"os"

	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize issue tracking in the current repository",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return errs.IO(err, "getwd")
		}
		s, err := store.Init(cwd)
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"prefix": s.Config.IDPrefix})
		} else if !quiet {
			fmt.Printf("Initialized .braid/ (id prefix %q)\n", s.Config.IDPrefix)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
