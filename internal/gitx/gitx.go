// Package gitx locates the enclosing git checkout and shells out to the git
// executable for the operations brd needs. git's human output is treated as
// unstable; only porcelain or specifically-requested formats are parsed.
package gitx

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/braid-dev/brd/internal/errs"
)

// Repo describes the located checkout.
type Repo struct {
	// WorktreeRoot is the top level of the enclosing checkout.
	WorktreeRoot string
	// GitCommonDir is the shared .git directory that sibling worktrees of
	// this repository all reference.
	GitCommonDir string
}

// BrdCommonDir is scratch space shared by every worktree: the lock and, in
// issues-branch mode, the shared issues worktree live here.
func (r *Repo) BrdCommonDir() string {
	return filepath.Join(r.GitCommonDir, "brd")
}

// LockPath is the advisory lock target.
func (r *Repo) LockPath() string {
	return filepath.Join(r.BrdCommonDir(), "lock")
}

// Locate discovers the checkout containing startDir.
func Locate(startDir string) (*Repo, error) {
	out, err := Output(startDir, "rev-parse", "--show-toplevel", "--git-common-dir")
	if err != nil {
		return nil, errs.Wrap(errs.NotGitRepo, err, "%s is not inside a git repository", startDir)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		return nil, errs.New(errs.NotGitRepo, "unexpected rev-parse output: %q", out)
	}
	root := lines[0]
	common := lines[1]
	// rev-parse prints --git-common-dir relative to the directory git ran
	// in, not to the worktree root.
	if !filepath.IsAbs(common) {
		abs, err := filepath.Abs(filepath.Join(startDir, common))
		if err != nil {
			return nil, errs.IO(err, "resolve git common dir %s", common)
		}
		common = abs
	}
	return &Repo{WorktreeRoot: root, GitCommonDir: filepath.Clean(common)}, nil
}

// Run executes git with the given args in dir, discarding stdout.
func Run(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Output executes git in dir and returns its stdout.
func Output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// IsDirty reports whether dir has uncommitted changes.
func IsDirty(dir string) (bool, error) {
	out, err := Output(dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CurrentBranch returns the checked-out branch name in dir.
func CurrentBranch(dir string) (string, error) {
	out, err := Output(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BranchExists reports whether a local branch exists.
func BranchExists(dir, name string) bool {
	return Run(dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+name) == nil
}

// CreateBranch creates a branch at the current HEAD without switching to it.
func CreateBranch(dir, name string) error {
	return Run(dir, "branch", name)
}

// AddWorktree checks out branch into a new worktree at path.
func AddWorktree(dir, path, branch string) error {
	return Run(dir, "worktree", "add", path, branch)
}

// Worktree is one entry from worktree list --porcelain.
type Worktree struct {
	Path   string
	Branch string
}

// ListWorktrees parses worktree list --porcelain.
func ListWorktrees(dir string) ([]Worktree, error) {
	out, err := Output(dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	var wts []Worktree
	var cur Worktree
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur.Path != "" {
				wts = append(wts, cur)
			}
			cur = Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			cur.Branch = strings.TrimPrefix(ref, "refs/heads/")
		}
	}
	if cur.Path != "" {
		wts = append(wts, cur)
	}
	return wts, nil
}

// AheadBehind returns how many commits HEAD in dir is ahead of and behind
// the given ref. Returns zeros when the ref does not exist.
func AheadBehind(dir, ref string) (ahead, behind int, err error) {
	out, err := Output(dir, "rev-list", "--left-right", "--count", ref+"...HEAD")
	if err != nil {
		return 0, 0, nil
	}
	parts := strings.Fields(strings.TrimSpace(out))
	if len(parts) != 2 {
		return 0, 0, nil
	}
	behind, _ = strconv.Atoi(parts[0])
	ahead, _ = strconv.Atoi(parts[1])
	return ahead, behind, nil
}

// CommitPaths stages the given paths and commits them with message. A clean
// index after staging is not an error; the commit is skipped.
func CommitPaths(dir, message string, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	if err := Run(dir, args...); err != nil {
		return err
	}
	staged, err := Output(dir, "diff", "--cached", "--name-only")
	if err != nil {
		return err
	}
	if strings.TrimSpace(staged) == "" {
		return nil
	}
	return Run(dir, "commit", "-m", message)
}

// Fetch updates remote refs in dir. A missing remote is not an error.
func Fetch(dir string) error {
	if !HasRemote(dir) {
		return nil
	}
	return Run(dir, "fetch", "--quiet")
}

// PullRebase rebases the current branch on its upstream, if any.
func PullRebase(dir string) error {
	if !HasRemote(dir) {
		return nil
	}
	return Run(dir, "pull", "--rebase", "--quiet")
}

// Push publishes the current branch. A missing remote is not an error.
func Push(dir string) error {
	if !HasRemote(dir) {
		return nil
	}
	return Run(dir, "push", "--quiet")
}

// HasRemote reports whether dir has any configured remote.
func HasRemote(dir string) bool {
	out, err := Output(dir, "remote")
	return err == nil && strings.TrimSpace(out) != ""
}
