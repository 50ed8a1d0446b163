// Package graph computes readiness, blocked-state, cycles, and dependency
// propagation over an in-memory issue store.
package graph

import (
	"sort"

	"github.com/braid-dev/brd/internal/model"
)

// Graph is an in-memory dependency view built from the loaded store.
// Edges follow deps: an issue points at the issues it waits on.
type Graph struct {
	nodes map[string]*model.Issue
}

// Build constructs a graph from a loaded store.
func Build(issues map[string]*model.Issue) *Graph {
	return &Graph{nodes: issues}
}

// OpenDeps returns the deps of issue that exist but are not done.
func (g *Graph) OpenDeps(issue *model.Issue) []string {
	var open []string
	for _, d := range issue.Deps {
		if dep, ok := g.nodes[d]; ok && dep.Status != model.StatusDone {
			open = append(open, d)
		}
	}
	return open
}

// MissingDeps returns the deps of issue that resolve to no issue.
func (g *Graph) MissingDeps(issue *model.Issue) []string {
	var missing []string
	for _, d := range issue.Deps {
		if _, ok := g.nodes[d]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

// IsReady reports whether issue is open with every dep done and present.
func (g *Graph) IsReady(issue *model.Issue) bool {
	return issue.Status == model.StatusOpen &&
		len(g.OpenDeps(issue)) == 0 &&
		len(g.MissingDeps(issue)) == 0
}

// IsBlocked reports whether issue is open but waiting on an open or
// missing dep.
func (g *Graph) IsBlocked(issue *model.Issue) bool {
	return issue.Status == model.StatusOpen &&
		(len(g.OpenDeps(issue)) > 0 || len(g.MissingDeps(issue)) > 0)
}

// Ready returns all ready issues sorted by (priority, created_at, id).
func (g *Graph) Ready() []*model.Issue {
	var ready []*model.Issue
	for _, issue := range g.nodes {
		if g.IsReady(issue) {
			ready = append(ready, issue)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return ready
}

// Blocked returns all blocked issues sorted by (priority, created_at, id).
func (g *Graph) Blocked() []*model.Issue {
	var blocked []*model.Issue
	for _, issue := range g.nodes {
		if g.IsBlocked(issue) {
			blocked = append(blocked, issue)
		}
	}
	sort.Slice(blocked, func(i, j int) bool {
		a, b := blocked[i], blocked[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return blocked
}

// DetectCycles finds dependency cycles using DFS with visited and on-stack
// marker sets. The same cycle may be reported more than once when reached
// from different roots; callers treat the result as a set.
func (g *Graph) DetectCycles() [][]string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var cycles [][]string
	var path []string

	var dfs func(id string)
	dfs = func(id string) {
		if onStack[id] {
			// Found a cycle -- extract the tail of the path from id onward.
			var cycle []string
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle = append(cycle, path[start:]...)
			cycle = append(cycle, id)
			cycles = append(cycles, cycle)
			return
		}
		if visited[id] {
			return
		}
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		if issue, ok := g.nodes[id]; ok {
			for _, next := range issue.Deps {
				dfs(next)
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
	}

	var roots []string
	for id := range g.nodes {
		roots = append(roots, id)
	}
	sort.Strings(roots)
	for _, id := range roots {
		dfs(id)
	}
	return cycles
}

// WouldCreateCycle checks a proposed edge child -> parent. It returns nil if
// the edge is safe, or a concrete path demonstrating the cycle it would
// close. The path starts and ends at child.
func (g *Graph) WouldCreateCycle(child, parent string) []string {
	if child == parent {
		return []string{child, child}
	}
	// If child is reachable from parent through existing deps, the new edge
	// closes a loop.
	visited := make(map[string]bool)
	var walk func(id string, trail []string) []string
	walk = func(id string, trail []string) []string {
		if id == child {
			return trail
		}
		if visited[id] {
			return nil
		}
		visited[id] = true
		issue, ok := g.nodes[id]
		if !ok {
			return nil
		}
		for _, next := range issue.Deps {
			if p := walk(next, append(trail, next)); p != nil {
				return p
			}
		}
		return nil
	}
	reach := walk(parent, []string{parent})
	if reach == nil {
		return nil
	}
	return append([]string{child}, reach...)
}

// Dependents returns the issues that list id in their deps, sorted by ID.
func (g *Graph) Dependents(id string) []*model.Issue {
	var out []*model.Issue
	for _, issue := range g.nodes {
		if issue.HasDep(id) {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Propagate appends each result ID to every dependent of doneID that does
// not already carry it, and returns the touched issues. This is how design
// issues hand their spawned implementation issues to their dependents.
// Dependents that are themselves results are left untouched: a result that
// depends on the design issue must not be made to depend on itself or on a
// sibling result it feeds into.
func (g *Graph) Propagate(doneID string, results []string) []*model.Issue {
	if len(results) == 0 {
		return nil
	}
	isResult := make(map[string]bool, len(results))
	for _, r := range results {
		isResult[r] = true
	}
	var touched []*model.Issue
	for _, dep := range g.Dependents(doneID) {
		if isResult[dep.ID] {
			continue
		}
		changed := false
		for _, r := range results {
			if r == dep.ID {
				continue
			}
			if path := g.WouldCreateCycle(dep.ID, r); path != nil {
				continue
			}
			if dep.AddDep(r) {
				changed = true
			}
		}
		if changed {
			touched = append(touched, dep)
		}
	}
	return touched
}
