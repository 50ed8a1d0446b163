package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/graph"
	"github.com/braid-dev/brd/internal/idgen"
	"github.com/braid-dev/brd/internal/model"
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// AddOptions carries the inputs to Add. Deps entries are resolved as
// partial IDs against the loaded store.
type AddOptions struct {
	Title      string
	Priority   string
	Type       string
	Deps       []string
	Tags       []string
	Acceptance []string
	Body       string
}

// Add creates a new open issue with a fresh random ID.
func (s *Store) Add(opts AddOptions) (*model.Issue, error) {
	var created *model.Issue
	err := s.mutate(func() (string, error) {
		prio := model.PriorityMedium
		if opts.Priority != "" {
			p, err := model.ParsePriority(opts.Priority)
			if err != nil {
				return "", errs.Wrap(errs.Usage, err, "bad priority")
			}
			prio = p
		}
		var itype model.IssueType
		if opts.Type != "" {
			t, err := model.ParseIssueType(opts.Type)
			if err != nil {
				return "", errs.Wrap(errs.Usage, err, "bad type")
			}
			itype = t
		}

		var deps []string
		for _, d := range opts.Deps {
			id, err := s.ResolveID(d)
			if err != nil {
				return "", err
			}
			deps = append(deps, id)
		}

		id, err := idgen.NewID(s.Config.IDPrefix, s.Config.IDLen, s.Exists)
		if err != nil {
			return "", errs.Wrap(errs.Other, err, "generate ID")
		}

		issue := &model.Issue{
			SchemaVersion: model.CurrentSchemaVersion,
			ID:            id,
			Title:         opts.Title,
			Priority:      prio,
			Status:        model.StatusOpen,
			Type:          itype,
			Deps:          dedupe(deps),
			Tags:          dedupe(opts.Tags),
			Acceptance:    opts.Acceptance,
			CreatedAt:     now(),
			Body:          opts.Body,
		}
		if err := s.write(issue); err != nil {
			return "", err
		}
		s.issues[id] = issue
		created = issue
		return fmt.Sprintf("brd: add %s %s", id, issue.Title), nil
	})
	return created, err
}

// Start claims an issue for the current agent. With an empty partial it
// picks the first ready issue that is not a meta tracker.
func (s *Store) Start(partial string, force bool) (*model.Issue, error) {
	var started *model.Issue
	err := s.mutate(func() (string, error) {
		var issue *model.Issue
		if partial == "" {
			g := graph.Build(s.issues)
			for _, candidate := range g.Ready() {
				if candidate.Type != model.TypeMeta {
					issue = candidate
					break
				}
			}
			if issue == nil {
				return "", errs.New(errs.IssueNotFound, "no ready issues available")
			}
		} else {
			id, err := s.ResolveID(partial)
			if err != nil {
				return "", err
			}
			issue = s.issues[id]
		}

		if issue.Status == model.StatusDoing && !force {
			return "", errs.New(errs.ClaimConflict, "%s is already being worked on by %s (use --force to take over)", issue.ID, issue.Owner)
		}

		t := now()
		issue.Status = model.StatusDoing
		issue.Owner = s.Agent
		issue.StartedAt = &t
		if err := s.write(issue); err != nil {
			return "", err
		}
		started = issue
		return fmt.Sprintf("brd: start %s", issue.ID), nil
	})
	return started, err
}

// Done completes an issue. Design issues require at least one result issue
// or force; supplied results are propagated to every dependent.
func (s *Store) Done(partial string, force bool, results []string) (*model.Issue, error) {
	var done *model.Issue
	err := s.mutate(func() (string, error) {
		id, err := s.ResolveID(partial)
		if err != nil {
			return "", err
		}
		issue := s.issues[id]

		if issue.Type == model.TypeDesign && len(results) == 0 && !force {
			return "", errs.New(errs.Usage, "%s is a design issue; name its result issues with --results or override with --force", id)
		}

		var resolved []string
		for _, r := range results {
			rid, err := s.ResolveID(r)
			if err != nil {
				return "", err
			}
			resolved = append(resolved, rid)
		}

		g := graph.Build(s.issues)
		for _, touched := range g.Propagate(id, resolved) {
			if err := s.write(touched); err != nil {
				return "", err
			}
		}

		t := now()
		issue.Status = model.StatusDone
		issue.Owner = ""
		issue.CompletedAt = &t
		if err := s.write(issue); err != nil {
			return "", err
		}
		done = issue
		return fmt.Sprintf("brd: done %s", id), nil
	})
	return done, err
}

// Skip closes an issue without doing it.
func (s *Store) Skip(partial string) (*model.Issue, error) {
	var skipped *model.Issue
	err := s.mutate(func() (string, error) {
		id, err := s.ResolveID(partial)
		if err != nil {
			return "", err
		}
		issue := s.issues[id]
		t := now()
		issue.Status = model.StatusSkip
		issue.Owner = ""
		issue.CompletedAt = &t
		if err := s.write(issue); err != nil {
			return "", err
		}
		skipped = issue
		return fmt.Sprintf("brd: skip %s", id), nil
	})
	return skipped, err
}

// Reopen returns a closed issue to the open pool.
func (s *Store) Reopen(partial string) (*model.Issue, error) {
	var reopened *model.Issue
	err := s.mutate(func() (string, error) {
		id, err := s.ResolveID(partial)
		if err != nil {
			return "", err
		}
		issue := s.issues[id]
		issue.Status = model.StatusOpen
		issue.Owner = ""
		issue.CompletedAt = nil
		if err := s.write(issue); err != nil {
			return "", err
		}
		reopened = issue
		return fmt.Sprintf("brd: reopen %s", id), nil
	})
	return reopened, err
}

// Set edits a single field. type and owner accept "-" to clear; tag values
// add by default ("+x" or "x") and remove with a "-" prefix.
func (s *Store) Set(partial, field, value string) (*model.Issue, error) {
	var edited *model.Issue
	err := s.mutate(func() (string, error) {
		id, err := s.ResolveID(partial)
		if err != nil {
			return "", err
		}
		issue := s.issues[id]

		switch field {
		case "priority":
			p, err := model.ParsePriority(value)
			if err != nil {
				return "", errs.Wrap(errs.Usage, err, "bad priority")
			}
			issue.Priority = p
		case "status":
			st, err := model.ParseStatus(value)
			if err != nil {
				return "", errs.Wrap(errs.Usage, err, "bad status")
			}
			s.applyStatus(issue, st)
		case "type":
			if value == "-" {
				issue.Type = ""
			} else {
				t, err := model.ParseIssueType(value)
				if err != nil {
					return "", errs.Wrap(errs.Usage, err, "bad type")
				}
				issue.Type = t
			}
		case "owner":
			if value == "-" {
				issue.Owner = ""
			} else {
				issue.Owner = value
			}
		case "title":
			if strings.TrimSpace(value) == "" {
				return "", errs.New(errs.Usage, "title cannot be empty")
			}
			issue.Title = value
		case "tag":
			switch {
			case strings.HasPrefix(value, "-"):
				issue.RemoveTag(strings.TrimPrefix(value, "-"))
			case strings.HasPrefix(value, "+"):
				issue.AddTag(strings.TrimPrefix(value, "+"))
			default:
				issue.AddTag(value)
			}
		default:
			return "", errs.New(errs.Usage, "unknown field %q: must be priority, status, type, owner, title, or tag", field)
		}

		if err := s.write(issue); err != nil {
			return "", err
		}
		edited = issue
		return fmt.Sprintf("brd: set %s %s", id, field), nil
	})
	return edited, err
}

// applyStatus keeps the structural invariants intact for manual status
// edits: doing needs owner and started_at, closed statuses need
// completed_at, reopening clears them.
func (s *Store) applyStatus(issue *model.Issue, st model.Status) {
	t := now()
	issue.Status = st
	switch st {
	case model.StatusDoing:
		if issue.Owner == "" {
			issue.Owner = s.Agent
		}
		if issue.StartedAt == nil {
			issue.StartedAt = &t
		}
		issue.CompletedAt = nil
	case model.StatusDone, model.StatusSkip:
		issue.Owner = ""
		if issue.CompletedAt == nil {
			issue.CompletedAt = &t
		}
	case model.StatusOpen:
		issue.Owner = ""
		issue.CompletedAt = nil
	}
}

// Remove deletes an issue file. Issues in progress need force. Dependents
// that reference the deleted ID are left alone; doctor reports them.
func (s *Store) Remove(partial string, force bool) (string, error) {
	var removed string
	err := s.mutate(func() (string, error) {
		id, err := s.ResolveID(partial)
		if err != nil {
			return "", err
		}
		issue := s.issues[id]
		if issue.Status == model.StatusDoing && !force {
			return "", errs.New(errs.ClaimConflict, "%s is being worked on by %s (use --force to delete anyway)", id, issue.Owner)
		}
		if err := os.Remove(filepath.Join(s.IssuesDir, id+".md")); err != nil {
			return "", errs.IO(err, "delete issue %s", id)
		}
		delete(s.issues, id)
		removed = id
		return fmt.Sprintf("brd: rm %s", id), nil
	})
	return removed, err
}

// DepAdd records that child waits on parent. Self-dependencies and edges
// that would close a cycle are rejected with the demonstrating path.
// Adding an edge that already exists is a no-op.
func (s *Store) DepAdd(childPartial, parentPartial string) (*model.Issue, error) {
	var child *model.Issue
	err := s.mutate(func() (string, error) {
		childID, err := s.ResolveID(childPartial)
		if err != nil {
			return "", err
		}
		parentID, err := s.ResolveID(parentPartial)
		if err != nil {
			return "", err
		}
		child = s.issues[childID]

		if childID == parentID {
			return "", errs.New(errs.InvalidGraph, "%s cannot depend on itself", childID)
		}
		if child.HasDep(parentID) {
			return "", nil
		}
		g := graph.Build(s.issues)
		if path := g.WouldCreateCycle(childID, parentID); path != nil {
			return "", errs.Cycle(path)
		}

		child.AddDep(parentID)
		if err := s.write(child); err != nil {
			return "", err
		}
		return fmt.Sprintf("brd: dep add %s -> %s", childID, parentID), nil
	})
	return child, err
}

// DepRm removes a dependency edge. The parent side may be a missing issue,
// so it resolves against the child's dep list when store resolution fails.
// Removing an absent edge is a no-op.
func (s *Store) DepRm(childPartial, parentPartial string) (*model.Issue, error) {
	var child *model.Issue
	err := s.mutate(func() (string, error) {
		childID, err := s.ResolveID(childPartial)
		if err != nil {
			return "", err
		}
		child = s.issues[childID]

		parentID, err := s.ResolveID(parentPartial)
		if err != nil {
			parentID = resolveAgainst(child.Deps, parentPartial)
			if parentID == "" {
				return "", nil
			}
		}
		if !child.RemoveDep(parentID) {
			return "", nil
		}
		if err := s.write(child); err != nil {
			return "", err
		}
		return fmt.Sprintf("brd: dep rm %s -> %s", childID, parentID), nil
	})
	return child, err
}

// ForceMigrate rewrites every parseable issue at the current schema.
func (s *Store) ForceMigrate() (int, error) {
	count := 0
	err := s.mutate(func() (string, error) {
		for _, issue := range s.Sorted() {
			if err := s.write(issue); err != nil {
				return "", err
			}
			count++
		}
		if count == 0 {
			return "", nil
		}
		return fmt.Sprintf("brd: migrate %d issues to schema %d", count, model.CurrentSchemaVersion), nil
	})
	return count, err
}

func resolveAgainst(ids []string, input string) string {
	for _, id := range ids {
		if id == input || strings.Contains(id, input) {
			return id
		}
	}
	return ""
}

func dedupe(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(vals))
	var out []string
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
