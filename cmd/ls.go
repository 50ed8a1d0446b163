package cmd

import (
	"os"
	"strings"

	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/format"
	"github.com/braid-dev/brd/internal/graph"
	"github.com/braid-dev/brd/internal/model"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List issues",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFilter, _ := cmd.Flags().GetString("status")
		typeFilter, _ := cmd.Flags().GetString("type")
		ownerFilter, _ := cmd.Flags().GetString("owner")
		tagFilter, _ := cmd.Flags().GetString("tag")
		prioFilter, _ := cmd.Flags().GetString("priority")
		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")

		var wantPrio model.Priority = -1
		if prioFilter != "" {
			p, err := model.ParsePriority(prioFilter)
			if err != nil {
				return errs.New(errs.Usage, "%v", err)
			}
			wantPrio = p
		}
		if statusFilter != "" {
			if _, err := model.ParseStatus(statusFilter); err != nil {
				return errs.New(errs.Usage, "%v", err)
			}
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		if err := s.Load(); err != nil {
			return err
		}

		var out []*model.Issue
		for _, issue := range s.Sorted() {
			if statusFilter != "" {
				if string(issue.Status) != statusFilter {
					continue
				}
			} else if !all && issue.Status.Closed() {
				continue
			}
			if typeFilter != "" && string(issue.Type) != strings.ToLower(typeFilter) {
				continue
			}
			if ownerFilter != "" && issue.Owner != ownerFilter {
				continue
			}
			if tagFilter != "" && !issue.HasTag(tagFilter) {
				continue
			}
			if wantPrio >= 0 && issue.Priority != wantPrio {
				continue
			}
			out = append(out, issue)
			if limit > 0 && len(out) >= limit {
				break
			}
		}

		if jsonOut {
			return format.JSON(os.Stdout, out)
		}
		g := graph.Build(s.Issues())
		format.Table(os.Stdout, out, func(id string) bool {
			issue, ok := s.Issues()[id]
			return ok && g.IsBlocked(issue)
		})
		return nil
	},
}

func init() {
	lsCmd.Flags().StringP("status", "s", "", "filter by status (open, doing, done, skip)")
	lsCmd.Flags().StringP("type", "t", "", "filter by type (design, meta)")
	lsCmd.Flags().String("owner", "", "filter by owner")
	lsCmd.Flags().String("tag", "", "filter by tag")
	lsCmd.Flags().StringP("priority", "p", "", "filter by priority P0-P3")
	lsCmd.Flags().BoolP("all", "a", false, "include done and skipped issues")
	lsCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	rootCmd.AddCommand(lsCmd)
}
