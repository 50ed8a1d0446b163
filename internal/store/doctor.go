package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/braid-dev/brd/internal/codec"
	"github.com/braid-dev/brd/internal/graph"
)

// Report is the result of a doctor run.
type Report struct {
	// MissingDeps maps an issue ID to the dep IDs that resolve to nothing.
	MissingDeps map[string][]string
	// Cycles lists dependency cycles; each path starts and ends at the
	// same node.
	Cycles [][]string
	// ParseFailures lists files skipped during the load.
	ParseFailures []codec.Failure
	// StaleTemps lists .tmp.<pid> sidecars from interrupted writes. They
	// are reported, not cleaned: doctor is read-only.
	StaleTemps []string
}

// Clean reports whether the store passed every check.
func (r *Report) Clean() bool {
	return len(r.MissingDeps) == 0 && len(r.Cycles) == 0 && len(r.ParseFailures) == 0
}

// Doctor validates the store without mutating it. It acquires no lock;
// individual file writes are atomic, so a concurrent mutation is observed
// as a consistent before-or-after state.
func (s *Store) Doctor() (*Report, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}

	r := &Report{
		MissingDeps:   make(map[string][]string),
		ParseFailures: s.failures,
	}

	g := graph.Build(s.issues)
	for _, issue := range s.Sorted() {
		if missing := g.MissingDeps(issue); len(missing) > 0 {
			r.MissingDeps[issue.ID] = missing
		}
	}
	r.Cycles = g.DetectCycles()

	entries, err := os.ReadDir(s.IssuesDir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.Contains(e.Name(), ".tmp.") {
				r.StaleTemps = append(r.StaleTemps, filepath.Join(s.IssuesDir, e.Name()))
			}
		}
	}
	sort.Strings(r.StaleTemps)
	return r, nil
}
