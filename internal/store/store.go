// Package store ties the core together: it locates the repository, loads
// config and issues, resolves the physical issues layout, and runs every
// mutation under the cross-process lock.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/braid-dev/brd/internal/agent"
	"github.com/braid-dev/brd/internal/codec"
	"github.com/braid-dev/brd/internal/config"
	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/gitx"
	"github.com/braid-dev/brd/internal/lock"
	"github.com/braid-dev/brd/internal/model"
)

// GitignoreContent is written to .braid/.gitignore on init. agent.toml is
// per-worktree identity and must never be shared.
const GitignoreContent = "agent.toml\nruntime/\n"

// Store is the handle every command operates through.
type Store struct {
	Repo      *gitx.Repo
	Config    *config.Config
	Agent     string
	Mode      Mode
	IssuesDir string

	// NoWait makes mutations fail fast with a lock-busy error instead of
	// blocking on the cross-process lock.
	NoWait bool

	issues   map[string]*model.Issue
	failures []codec.Failure
}

// Open locates the enclosing repository and loads its braid config.
// Issues are loaded lazily: readers call Load directly, mutators get a
// fresh load inside the lock.
func Open(startDir string) (*Store, error) {
	repo, err := gitx.Locate(startDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Path(repo.WorktreeRoot))
	if err != nil {
		return nil, err
	}
	mode, issuesDir := ResolveLayout(repo, cfg)
	return &Store{
		Repo:      repo,
		Config:    cfg,
		Agent:     agent.ID(repo.WorktreeRoot),
		Mode:      mode,
		IssuesDir: issuesDir,
	}, nil
}

// Init creates the .braid control directory in the enclosing checkout.
func Init(startDir string) (*Store, error) {
	repo, err := gitx.Locate(startDir)
	if err != nil {
		return nil, err
	}
	cfgPath := config.Path(repo.WorktreeRoot)
	if _, err := os.Stat(cfgPath); err == nil {
		return nil, errs.New(errs.ControlRootInvalid, "braid already initialized at %s", filepath.Dir(cfgPath))
	}

	braidDir := filepath.Join(repo.WorktreeRoot, ".braid")
	if err := os.MkdirAll(filepath.Join(braidDir, "issues"), 0o755); err != nil {
		return nil, errs.IO(err, "create %s", braidDir)
	}
	if err := os.WriteFile(filepath.Join(braidDir, ".gitignore"), []byte(GitignoreContent), 0o644); err != nil {
		return nil, errs.IO(err, "write .braid/.gitignore")
	}

	cfg := config.Default(filepath.Base(repo.WorktreeRoot))
	if err := cfg.Save(cfgPath); err != nil {
		return nil, err
	}

	mode, issuesDir := ResolveLayout(repo, cfg)
	return &Store{
		Repo:      repo,
		Config:    cfg,
		Agent:     agent.ID(repo.WorktreeRoot),
		Mode:      mode,
		IssuesDir: issuesDir,
	}, nil
}

// Load reads every issue under the resolved issues directory, applying
// migrations in memory. Unparseable files are collected, not fatal.
func (s *Store) Load() error {
	issues, failures, err := codec.LoadAll(s.IssuesDir)
	if err != nil {
		return errs.IO(err, "load issues")
	}
	s.issues = issues
	s.failures = failures
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "brd: skipping %s: %v\n", f.Path, f.Err)
	}
	return nil
}

// Issues returns the loaded store keyed by ID.
func (s *Store) Issues() map[string]*model.Issue { return s.issues }

// Failures returns per-file parse failures from the last Load.
func (s *Store) Failures() []codec.Failure { return s.failures }

// Sorted returns the loaded issues ordered by ID.
func (s *Store) Sorted() []*model.Issue {
	out := make([]*model.Issue, 0, len(s.issues))
	for _, i := range s.issues {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Exists reports whether an issue file for id is present on disk.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(filepath.Join(s.IssuesDir, id+".md"))
	return err == nil
}

// withLock runs fn holding the exclusive cross-process lock. Every write
// path in the store, issue mutations and config or layout changes alike,
// goes through here.
func (s *Store) withLock(fn func() error) error {
	var l *lock.Lock
	var err error
	if s.NoWait {
		l, err = lock.TryAcquire(s.Repo.LockPath())
	} else {
		l, err = lock.Acquire(s.Repo.LockPath())
	}
	if err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// mutate runs fn under the exclusive cross-process lock with a fresh load.
// fn returns the commit summary for the change, or empty to skip the
// commit. The order is fixed: validate and write inside fn, then commit.
// If the commit fails after files were written, the files stay on disk;
// the filesystem, not the git index, is the source of truth.
func (s *Store) mutate(fn func() (string, error)) error {
	return s.withLock(func() error { return s.mutateLocked(fn) })
}

func (s *Store) mutateLocked(fn func() (string, error)) error {
	if s.Config.AutoPull && s.Mode != ModeGitNative {
		if err := gitx.PullRebase(s.issuesGitDir()); err != nil {
			fmt.Fprintf(os.Stderr, "brd: auto-pull failed: %v\n", err)
		}
	}

	if err := s.Load(); err != nil {
		return err
	}

	summary, err := fn()
	if err != nil {
		return err
	}
	if summary == "" {
		return nil
	}
	return s.commitIssues(summary)
}

// UpdateConfig applies fn to the config and persists it under the lock.
// fn sees a freshly loaded config, so concurrent edits from sibling
// worktrees never clobber each other.
func (s *Store) UpdateConfig(fn func(*config.Config) error) error {
	return s.withLock(func() error {
		cfgPath := config.Path(s.Repo.WorktreeRoot)
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := fn(cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		s.Config = cfg
		s.Mode, s.IssuesDir = ResolveLayout(s.Repo, cfg)
		return nil
	})
}

// issuesGitDir returns the checkout that owns the issues directory in the
// current layout.
func (s *Store) issuesGitDir() string {
	switch s.Mode {
	case ModeIssuesBranch:
		return s.IssuesDir
	case ModeExternalRepo:
		return s.Config.IssuesRepo
	default:
		return s.Repo.WorktreeRoot
	}
}

// commitIssues records the mutation in git for layouts brd manages itself.
// In git-native mode the user's ordinary commit flow owns the history.
func (s *Store) commitIssues(summary string) error {
	if s.Mode == ModeGitNative {
		return nil
	}
	dir := s.issuesGitDir()
	msg := fmt.Sprintf("%s (%s)", summary, s.Agent)
	if err := gitx.CommitPaths(dir, msg, "."); err != nil {
		return fmt.Errorf("commit issues: %w", err)
	}
	if s.Config.AutoPush {
		if err := gitx.Push(dir); err != nil {
			fmt.Fprintf(os.Stderr, "brd: auto-push failed: %v\n", err)
		}
	}
	return nil
}

// write serializes issue into the issues directory.
func (s *Store) write(issue *model.Issue) error {
	if err := issue.Validate(); err != nil {
		return errs.Wrap(errs.Other, err, "invalid issue %s", issue.ID)
	}
	if err := codec.WriteIssue(s.IssuesDir, issue); err != nil {
		return errs.IO(err, "write issue %s", issue.ID)
	}
	return nil
}

// ResolveID maps user input to a unique issue ID: exact match first, then
// substring or suffix matches.
func (s *Store) ResolveID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if _, ok := s.issues[input]; ok {
		return input, nil
	}
	var matches []string
	for id := range s.issues {
		if strings.Contains(id, input) || strings.HasSuffix(id, input) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)
	switch len(matches) {
	case 0:
		return "", errs.NotFound(input)
	case 1:
		return matches[0], nil
	default:
		return "", errs.Ambiguous(input, matches)
	}
}
