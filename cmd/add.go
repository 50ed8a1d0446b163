package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/braid-dev/brd/internal/store"
	"github.com/spf13/cobra"
)

// addOptsFromFlags gathers the creation flags shared by `add` and `q`.
func addOptsFromFlags(cmd *cobra.Command, args []string) (store.AddOptions, error) {
	opts := store.AddOptions{Title: strings.Join(args, " ")}
	opts.Priority, _ = cmd.Flags().GetString("priority")
	opts.Type, _ = cmd.Flags().GetString("type")
	opts.Deps, _ = cmd.Flags().GetStringSlice("dep")
	opts.Tags, _ = cmd.Flags().GetStringSlice("tag")
	opts.Acceptance, _ = cmd.Flags().GetStringArray("acceptance")
	opts.Body, _ = cmd.Flags().GetString("description")

	bodyFile, _ := cmd.Flags().GetString("body-file")
	if bodyFile != "" {
		body, err := readBodyFile(bodyFile)
		if err != nil {
			return opts, err
		}
		opts.Body = body
	}
	return opts, nil
}

func addCreationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("priority", "p", "P2", "priority P0-P3")
	cmd.Flags().StringP("type", "t", "", "issue type (design, meta)")
	cmd.Flags().StringSlice("dep", nil, "dependency issue IDs (repeatable)")
	cmd.Flags().StringSlice("tag", nil, "tags (repeatable)")
	cmd.Flags().StringArray("acceptance", nil, "acceptance criterion (repeatable)")
	cmd.Flags().StringP("description", "d", "", "issue body")
	cmd.Flags().String("body-file", "", "read body from file (- for stdin)")
}

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a new issue",
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
		} else if !quiet {
			fmt.Printf("Created %s: %s\n", issue.ID, issue.Title)
		} else {
			fmt.Println(issue.ID)
		}
		return nil
	},
}

func init() {
	addCreationFlags(addCmd)
	rootCmd.AddCommand(addCmd)
}

// readBodyFile reads content from a file path or stdin (when path is "-").
func readBodyFile(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read body file: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
