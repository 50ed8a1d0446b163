package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/store"
	"github.com/spf13/cobra"
)

var (
	jsonOut  bool
	quiet    bool
	noWait   bool
	startDir string
)

var rootCmd = &cobra.Command{
	Use:           "brd",
	Short:         "Repo-local issue tracker",
	Long:          "brd -- file-backed issue tracking that lives inside your git repository.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if startDir != "" {
			if err := os.Chdir(startDir); err != nil {
				return errs.IO(err, "chdir %s", startDir)
			}
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		e := errs.From(err)
		if jsonOut {
			msg := e.Message
			if msg == "" {
				msg = e.Error()
			}
			out := map[string]any{
				"ok":        false,
				"error":     e.Code(),
				"message":   msg,
				"exit_code": e.ExitCode(),
			}
			if len(e.Candidates) > 0 {
				out["candidates"] = e.Candidates
			}
			if len(e.CyclePath) > 0 {
				out["cycle"] = e.CyclePath
			}
			json.NewEncoder(os.Stdout).Encode(out)
		} else {
			errorf("%v", err)
			if len(e.Candidates) > 0 {
				fmt.Fprintf(os.Stderr, "candidates: %s\n", strings.Join(e.Candidates, ", "))
			}
			if len(e.CyclePath) > 0 {
				fmt.Fprintf(os.Stderr, "cycle: %s\n", strings.Join(e.CyclePath, " -> "))
			}
		}
		os.Exit(e.ExitCode())
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noWait, "no-wait", false, "fail instead of waiting for the repository lock")
	rootCmd.PersistentFlags().StringVarP(&startDir, "chdir", "C", "", "run as if started in this directory")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errs.Wrap(errs.Usage, err, "%v", err)
	})
}

// openStore locates the enclosing repository and loads its configuration.
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errs.IO(err, "getwd")
	}
	s, err := store.Open(cwd)
	if err != nil {
		return nil, err
	}
	s.NoWait = noWait
	return s, nil
}

// usageArgs adapts a cobra argument validator so violations carry the
// usage exit code.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return errs.Wrap(errs.Usage, err, "%v", err)
		}
		return nil
	}
}

func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "brd: "+format+"\n", args...)
}

// okJSON prints the minimal success object used by mutation commands.
func okJSON(fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["ok"] = true
	json.NewEncoder(os.Stdout).Encode(fields)
}
