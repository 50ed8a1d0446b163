package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the issue store for problems",
	Long: "Scan the issue store for unparseable files, dangling dependency " +
		"references, dependency cycles, and leftover temp files. Read-only.",
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		report, err := s.Doctor()
		if err != nil {
			return err
		}

		if jsonOut {
			missing := map[string][]string{}
			for id, deps := range report.MissingDeps {
				missing[id] = deps
			}
			cycles := report.Cycles
			if cycles == nil {
				cycles = [][]string{}
			}
			parseFailures := make([]string, 0, len(report.ParseFailures))
			for _, f := range report.ParseFailures {
				parseFailures = append(parseFailures, f.Path)
			}
			okJSON(map[string]any{
				"clean":          report.Clean(),
				"missing_deps":   missing,
				"cycles":         cycles,
				"parse_failures": parseFailures,
				"stale_temps":    report.StaleTemps,
			})
			return nil
		}

		problems := 0
		for _, f := range report.ParseFailures {
			fmt.Printf("[PARSE] %s: %v\n", f.Path, f.Err)
			problems++
		}
		ids := make([]string, 0, len(report.MissingDeps))
		for id := range report.MissingDeps {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			for _, dep := range report.MissingDeps[id] {
				fmt.Printf("[DEP] %s depends on %s, which does not exist\n", id, dep)
				problems++
			}
		}
		for i, cycle := range report.Cycles {
			fmt.Printf("[CYCLE] %d: %s\n", i+1, strings.Join(cycle, " -> "))
			problems++
		}
		for _, tmp := range report.StaleTemps {
			fmt.Printf("[TEMP] leftover temp file: %s\n", tmp)
			problems++
		}

		if problems == 0 {
			fmt.Println("No problems found.")
		} else {
			fmt.Printf("\n%d problem(s) found\n", problems)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
