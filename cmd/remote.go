package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage an external issues repository",
	Long: "Point issue storage at a separate braid-initialized repository, " +
		"shared by several projects.",
}

var remoteSetCmd = &cobra.Command{
	Use:   "set <path>",
	Short: "Store issues in an external braid repository",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := s.SetExternalRepo(args[0]); err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"path": args[0]})
		} else if !quiet {
			fmt.Printf("Issues now stored in %s\n", args[0])
		}
		return nil
	},
}

var remoteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Go back to repo-local issue storage",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := s.ClearExternalRepo(); err != nil {
			return err
		}
		if jsonOut {
			okJSON(nil)
		} else if !quiet {
			fmt.Println("Issues stored in .braid/issues again")
		}
		return nil
	},
}

func init() {
	remoteCmd.AddCommand(remoteSetCmd)
	remoteCmd.AddCommand(remoteClearCmd)
	rootCmd.AddCommand(remoteCmd)
}
