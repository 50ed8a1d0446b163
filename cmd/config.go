package cmd

import (
	"fmt"
	"strconv"

	"github.com/braid-dev/brd/internal/config"
	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/store"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit repository configuration",
}

func configValue(s *store.Store, key string) (any, bool) {
	switch key {
	case "schema_version":
		return s.Config.SchemaVersion, true
	case "id_prefix":
		return s.Config.IDPrefix, true
	case "id_len":
		return s.Config.IDLen, true
	case "issues_branch":
		return s.Config.IssuesBranch, true
	case "issues_repo":
		return s.Config.IssuesRepo, true
	case "auto_pull":
		return s.Config.AutoPull, true
	case "auto_push":
		return s.Config.AutoPush, true
	}
	return nil, false
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one config value",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		val, ok := configValue(s, args[0])
		if !ok {
			return errs.New(errs.Usage, "unknown config key %q", args[0])
		}
		if jsonOut {
			okJSON(map[string]any{"key": args[0], "value": val})
		} else {
			fmt.Println(val)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one config value",
	Long: "Set id_prefix, id_len, auto_pull, or auto_push. The issues_branch and " +
		"issues_repo keys are managed by `brd branch` and `brd remote`.",
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		s, err := openStore()
		if err != nil {
			return err
		}

		err = s.UpdateConfig(func(cfg *config.Config) error {
			switch key {
			case "id_prefix":
				cfg.IDPrefix = value
			case "id_len":
				n, err := strconv.Atoi(value)
				if err != nil {
					return errs.New(errs.Usage, "id_len must be an integer, got %q", value)
				}
				cfg.IDLen = n
			case "auto_pull", "auto_push":
				b, err := strconv.ParseBool(value)
				if err != nil {
					return errs.New(errs.Usage, "%s must be true or false, got %q", key, value)
				}
				if key == "auto_pull" {
					cfg.AutoPull = b
				} else {
					cfg.AutoPush = b
				}
			case "issues_branch", "issues_repo":
				return errs.New(errs.Usage, "use `brd branch` or `brd remote` to change %s", key)
			default:
				return errs.New(errs.Usage, "unknown config key %q", key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if jsonOut {
			okJSON(map[string]any{"key": key})
		} else if !quiet {
			fmt.Printf("Set %s = %s\n", key, value)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all config values",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		keys := []string{
			"schema_version", "id_prefix", "id_len",
			"issues_branch", "issues_repo", "auto_pull", "auto_push",
		}
		if jsonOut {
			out := map[string]any{}
			for _, k := range keys {
				v, _ := configValue(s, k)
				out[k] = v
			}
			okJSON(out)
			return nil
		}
		for _, k := range keys {
			v, _ := configValue(s, k)
			fmt.Printf("%s = %v\n", k, v)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
