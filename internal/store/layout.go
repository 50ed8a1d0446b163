package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/braid-dev/brd/internal/config"
	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/gitx"
)

// Mode selects where issue files physically live. All modes expose the same
// logical issues directory to the rest of the system.
type Mode int

const (
	// ModeGitNative keeps issues at worktree_root/.braid/issues, synced by
	// whatever branch the worktree tracks.
	ModeGitNative Mode = iota
	// ModeIssuesBranch keeps issues in a shared worktree under the common
	// git directory, checked out to a dedicated branch. Every sibling
	// worktree sees the same physical directory.
	ModeIssuesBranch
	// ModeExternalRepo points at a separate braid-initialized repository.
	ModeExternalRepo
)

func (m Mode) String() string {
	switch m {
	case ModeIssuesBranch:
		return "issues-branch"
	case ModeExternalRepo:
		return "external-repo"
	default:
		return "git-native"
	}
}

// ResolveLayout maps the logical issues directory to a physical path for
// the active mode.
func ResolveLayout(repo *gitx.Repo, cfg *config.Config) (Mode, string) {
	switch {
	case cfg.IssuesRepo != "":
		return ModeExternalRepo, filepath.Join(cfg.IssuesRepo, ".braid", "issues")
	case cfg.IssuesBranch != "":
		return ModeIssuesBranch, filepath.Join(repo.BrdCommonDir(), "issues")
	default:
		return ModeGitNative, filepath.Join(repo.WorktreeRoot, ".braid", "issues")
	}
}

// EnableIssuesBranch switches the repository to issues-branch mode: it
// creates the dedicated branch and shared worktree if needed, moves every
// local issue into it, commits, and records the branch in config. Returns
// the sibling worktrees left behind the controlling branch, for the caller
// to warn about.
func (s *Store) EnableIssuesBranch(branch string) ([]gitx.Worktree, error) {
	var wts []gitx.Worktree
	err := s.withLock(func() error {
		var err error
		wts, err = s.enableIssuesBranch(branch)
		return err
	})
	return wts, err
}

func (s *Store) enableIssuesBranch(branch string) ([]gitx.Worktree, error) {
	if s.Config.IssuesRepo != "" {
		return nil, errs.New(errs.ControlRootInvalid, "issues_repo is set; issues-branch mode is mutually exclusive with external-repo mode")
	}
	if s.Mode == ModeIssuesBranch {
		return nil, errs.New(errs.Other, "issues-branch mode is already enabled (branch %s)", s.Config.IssuesBranch)
	}
	if err := s.requireClean(s.Repo.WorktreeRoot, "enable issues-branch mode"); err != nil {
		return nil, err
	}

	shared := filepath.Join(s.Repo.BrdCommonDir(), "issues")
	if _, err := os.Stat(shared); os.IsNotExist(err) {
		if !gitx.BranchExists(s.Repo.WorktreeRoot, branch) {
			if err := gitx.CreateBranch(s.Repo.WorktreeRoot, branch); err != nil {
				return nil, fmt.Errorf("create branch %s: %w", branch, err)
			}
		}
		if err := gitx.AddWorktree(s.Repo.WorktreeRoot, shared, branch); err != nil {
			return nil, fmt.Errorf("add issues worktree: %w", err)
		}
	}
	if err := s.requireClean(shared, "enable issues-branch mode"); err != nil {
		return nil, err
	}

	local := filepath.Join(s.Repo.WorktreeRoot, ".braid", "issues")
	moved, err := moveIssueFiles(local, shared)
	if err != nil {
		return nil, err
	}
	if err := gitx.CommitPaths(shared, fmt.Sprintf("brd: adopt %d issues onto %s (%s)", moved, branch, s.Agent), "."); err != nil {
		return nil, err
	}

	s.Config.IssuesBranch = branch
	if err := s.saveConfigAndCommit(fmt.Sprintf("brd: enable issues-branch mode on %s (%s)", branch, s.Agent)); err != nil {
		return nil, err
	}
	s.Mode = ModeIssuesBranch
	s.IssuesDir = shared
	return s.laggingSiblings()
}

// DisableIssuesBranch copies issues back into the local checkout and clears
// the config field. The shared worktree is left in place for manual cleanup.
func (s *Store) DisableIssuesBranch() ([]gitx.Worktree, error) {
	var wts []gitx.Worktree
	err := s.withLock(func() error {
		var err error
		wts, err = s.disableIssuesBranch()
		return err
	})
	return wts, err
}

func (s *Store) disableIssuesBranch() ([]gitx.Worktree, error) {
	if s.Mode != ModeIssuesBranch {
		return nil, errs.New(errs.Other, "issues-branch mode is not enabled")
	}
	if err := s.requireClean(s.Repo.WorktreeRoot, "disable issues-branch mode"); err != nil {
		return nil, err
	}
	shared := s.IssuesDir
	if err := s.requireClean(shared, "disable issues-branch mode"); err != nil {
		return nil, err
	}

	local := filepath.Join(s.Repo.WorktreeRoot, ".braid", "issues")
	if err := os.MkdirAll(local, 0o755); err != nil {
		return nil, errs.IO(err, "create %s", local)
	}
	if _, err := copyIssueFiles(shared, local); err != nil {
		return nil, err
	}

	s.Config.IssuesBranch = ""
	if err := s.saveConfigAndCommit(fmt.Sprintf("brd: disable issues-branch mode (%s)", s.Agent)); err != nil {
		return nil, err
	}
	s.Mode = ModeGitNative
	s.IssuesDir = local
	return s.laggingSiblings()
}

// SetExternalRepo points the store at a separate braid repository.
func (s *Store) SetExternalRepo(path string) error {
	return s.withLock(func() error { return s.setExternalRepo(path) })
}

func (s *Store) setExternalRepo(path string) error {
	if s.Config.IssuesBranch != "" {
		return errs.New(errs.ControlRootInvalid, "issues_branch is set; external-repo mode is mutually exclusive with issues-branch mode")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errs.IO(err, "resolve %s", path)
	}
	if _, err := os.Stat(config.Path(abs)); err != nil {
		return errs.New(errs.ControlRootInvalid, "%s is not a braid-initialized repository", abs)
	}
	if err := s.requireClean(s.Repo.WorktreeRoot, "enable external-repo mode"); err != nil {
		return err
	}
	s.Config.IssuesRepo = abs
	if err := s.saveConfigAndCommit(fmt.Sprintf("brd: track issues in external repo %s (%s)", abs, s.Agent)); err != nil {
		return err
	}
	s.Mode = ModeExternalRepo
	s.IssuesDir = filepath.Join(abs, ".braid", "issues")
	return nil
}

// ClearExternalRepo returns to git-native mode. Local .braid/issues is used
// again as-is; nothing is copied from the external repository.
func (s *Store) ClearExternalRepo() error {
	return s.withLock(func() error { return s.clearExternalRepo() })
}

func (s *Store) clearExternalRepo() error {
	if s.Mode != ModeExternalRepo {
		return errs.New(errs.Other, "external-repo mode is not enabled")
	}
	if err := s.requireClean(s.Repo.WorktreeRoot, "disable external-repo mode"); err != nil {
		return err
	}
	s.Config.IssuesRepo = ""
	if err := s.saveConfigAndCommit(fmt.Sprintf("brd: stop tracking issues in external repo (%s)", s.Agent)); err != nil {
		return err
	}
	s.Mode = ModeGitNative
	s.IssuesDir = filepath.Join(s.Repo.WorktreeRoot, ".braid", "issues")
	return nil
}

func (s *Store) requireClean(dir, op string) error {
	dirty, err := gitx.IsDirty(dir)
	if err != nil {
		return err
	}
	if dirty {
		return errs.New(errs.Other, "cannot %s: %s has uncommitted changes", op, dir)
	}
	return nil
}

func (s *Store) saveConfigAndCommit(message string) error {
	cfgPath := config.Path(s.Repo.WorktreeRoot)
	if err := s.Config.Save(cfgPath); err != nil {
		return err
	}
	rel, err := filepath.Rel(s.Repo.WorktreeRoot, cfgPath)
	if err != nil {
		rel = cfgPath
	}
	return gitx.CommitPaths(s.Repo.WorktreeRoot, message, rel)
}

// laggingSiblings lists sibling worktrees whose checkout is behind the
// controlling worktree's branch; they need a rebase to pick up the layout
// change.
func (s *Store) laggingSiblings() ([]gitx.Worktree, error) {
	branch, err := gitx.CurrentBranch(s.Repo.WorktreeRoot)
	if err != nil {
		return nil, nil
	}
	wts, err := gitx.ListWorktrees(s.Repo.WorktreeRoot)
	if err != nil {
		return nil, nil
	}
	shared := filepath.Join(s.Repo.BrdCommonDir(), "issues")
	var lagging []gitx.Worktree
	for _, wt := range wts {
		if wt.Path == s.Repo.WorktreeRoot || wt.Path == shared || wt.Branch == "" {
			continue
		}
		_, behind, err := gitx.AheadBehind(wt.Path, branch)
		if err == nil && behind > 0 {
			lagging = append(lagging, wt)
		}
	}
	return lagging, nil
}

func moveIssueFiles(from, to string) (int, error) {
	return transferIssueFiles(from, to, true)
}

func copyIssueFiles(from, to string) (int, error) {
	return transferIssueFiles(from, to, false)
}

func transferIssueFiles(from, to string, remove bool) (int, error) {
	entries, err := os.ReadDir(from)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.IO(err, "read %s", from)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		src := filepath.Join(from, e.Name())
		dst := filepath.Join(to, e.Name())
		if err := copyFile(src, dst); err != nil {
			return count, err
		}
		if remove {
			if err := os.Remove(src); err != nil {
				return count, errs.IO(err, "remove %s", src)
			}
		}
		count++
	}
	return count, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.IO(err, "open %s", src)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errs.IO(err, "create %s", dst)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return errs.IO(err, "copy %s", dst)
	}
	return out.Close()
}
