package store

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/braid-dev/brd/internal/agent"
	"github.com/braid-dev/brd/internal/config"
	"github.com/braid-dev/brd/internal/errs"
	"github.com/braid-dev/brd/internal/graph"
	"github.com/braid-dev/brd/internal/lock"
	"github.com/braid-dev/brd/internal/model"
)

func gitRepo(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	git(t, dir, "init", "-q")
	git(t, dir, "config", "user.email", "test@example.com")
	git(t, dir, "config", "user.name", "tester")
	t.Setenv(agent.EnvVar, "tester")
	return dir
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
}

func TestInitAndAdd(t *testing.T) {
	dir := gitRepo(t)

	s, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".braid", "config.toml")); err != nil {
		t.Fatalf("config.toml missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".braid", ".gitignore")); err != nil {
		t.Fatalf(".braid/.gitignore missing: %v", err)
	}

	// Re-init refuses.
	if _, err := Init(dir); err == nil {
		t.Fatal("second Init should fail")
	}

	issue, err := s.Add(AddOptions{Title: "first"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if issue.Status != model.StatusOpen {
		t.Errorf("status = %q, want open", issue.Status)
	}
	if issue.Priority != model.PriorityMedium {
		t.Errorf("priority = %v, want P2", issue.Priority)
	}
	if !model.ValidID(issue.ID) {
		t.Errorf("bad ID %q", issue.ID)
	}
	if _, err := os.Stat(filepath.Join(dir, ".braid", "issues", issue.ID+".md")); err != nil {
		t.Errorf("issue file missing: %v", err)
	}
}

func TestNotGitRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	if err == nil {
		t.Fatal("Open outside a git repo should fail")
	}
	if errs.From(err).Kind != errs.NotGitRepo {
		t.Errorf("kind = %v, want NotGitRepo", errs.From(err).Kind)
	}
}

func TestReadinessAndCompletion(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	a, err := s.Add(AddOptions{Title: "A"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Add(AddOptions{Title: "B", Deps: []string{a.ID}})
	if err != nil {
		t.Fatal(err)
	}

	started, err := s.Start(a.ID, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != model.StatusDoing || started.Owner != "tester" || started.StartedAt == nil {
		t.Errorf("start did not claim: %+v", started)
	}

	// Starting again without force is a claim conflict.
	if _, err := s.Start(a.ID, false); errs.From(err).Kind != errs.ClaimConflict {
		t.Errorf("second start: got %v, want claim-conflict", err)
	}
	if _, err := s.Start(a.ID, true); err != nil {
		t.Errorf("forced start: %v", err)
	}

	done, err := s.Done(a.ID, false, nil)
	if err != nil {
		t.Fatalf("Done: %v", err)
	}
	if done.Status != model.StatusDone || done.Owner != "" || done.CompletedAt == nil {
		t.Errorf("done did not complete: %+v", done)
	}

	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	g := graph.Build(s.Issues())
	ready := g.Ready()
	if len(ready) != 1 || ready[0].ID != b.ID {
		t.Errorf("ready = %v, want [%s]", ready, b.ID)
	}
}

func TestStartPicksReadySkippingMeta(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Add(AddOptions{Title: "tracker", Type: "meta", Priority: "P0"}); err != nil {
		t.Fatal(err)
	}
	work, err := s.Add(AddOptions{Title: "real work", Priority: "P1"})
	if err != nil {
		t.Fatal(err)
	}

	picked, err := s.Start("", false)
	if err != nil {
		t.Fatalf("Start auto-pick: %v", err)
	}
	if picked.ID != work.ID {
		t.Errorf("picked %s, want %s (meta issues are never picked)", picked.ID, work.ID)
	}
}

func TestCycleRejection(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	b, err := s.Add(AddOptions{Title: "B"})
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add(AddOptions{Title: "A", Deps: []string{b.ID}})
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.DepAdd(b.ID, a.ID)
	e := errs.From(err)
	if e.Kind != errs.InvalidGraph {
		t.Fatalf("DepAdd: got %v, want invalid-graph", err)
	}
	want := []string{b.ID, a.ID, b.ID}
	if strings.Join(e.CyclePath, " ") != strings.Join(want, " ") {
		t.Errorf("cycle path = %v, want %v", e.CyclePath, want)
	}

	// Self-dependency rejected.
	if _, err := s.DepAdd(a.ID, a.ID); errs.From(err).Kind != errs.InvalidGraph {
		t.Errorf("self dep: got %v, want invalid-graph", err)
	}

	// Duplicate edge is a no-op.
	if _, err := s.DepAdd(a.ID, b.ID); err != nil {
		t.Errorf("duplicate edge: %v", err)
	}
	// Removing an absent edge is a no-op.
	if _, err := s.DepRm(b.ID, a.ID); err != nil {
		t.Errorf("absent edge rm: %v", err)
	}
}

func TestDesignPropagation(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	design, err := s.Add(AddOptions{Title: "D", Type: "design"})
	if err != nil {
		t.Fatal(err)
	}
	impl, err := s.Add(AddOptions{Title: "I"})
	if err != nil {
		t.Fatal(err)
	}
	x, err := s.Add(AddOptions{Title: "X", Deps: []string{design.ID}})
	if err != nil {
		t.Fatal(err)
	}

	// Design issues refuse a bare done.
	if _, err := s.Done(design.ID, false, nil); err == nil {
		t.Fatal("done on design without results should fail")
	}

	if _, err := s.Done(design.ID, false, []string{impl.ID}); err != nil {
		t.Fatalf("Done with result: %v", err)
	}

	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	got := s.Issues()[x.ID].Deps
	want := []string{design.ID, impl.ID}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("X.deps = %v, want %v", got, want)
	}
	if s.Issues()[design.ID].Status != model.StatusDone {
		t.Errorf("design status = %q, want done", s.Issues()[design.ID].Status)
	}
}

func TestDesignResultDependingOnDesign(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	design, err := s.Add(AddOptions{Title: "D", Type: "design"})
	if err != nil {
		t.Fatal(err)
	}
	impl, err := s.Add(AddOptions{Title: "I", Deps: []string{design.ID}})
	if err != nil {
		t.Fatal(err)
	}

	// The result is itself a dependent of the design issue; it must not
	// end up depending on itself.
	if _, err := s.Done(design.ID, false, []string{impl.ID}); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	got := s.Issues()[impl.ID]
	if strings.Join(got.Deps, " ") != design.ID {
		t.Errorf("impl.deps = %v, want [%s]", got.Deps, design.ID)
	}
	if got.HasDep(impl.ID) {
		t.Error("impl depends on itself")
	}
	g := graph.Build(s.Issues())
	if len(g.DetectCycles()) != 0 {
		t.Error("done left a dependency cycle on disk")
	}
}

func TestResolveID(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add(AddOptions{Title: "A"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}

	// Exact.
	if id, err := s.ResolveID(a.ID); err != nil || id != a.ID {
		t.Errorf("exact resolve = %q, %v", id, err)
	}
	// Suffix.
	suffix := a.ID[len(a.ID)-3:]
	if id, err := s.ResolveID(suffix); err != nil || id != a.ID {
		t.Errorf("suffix resolve(%q) = %q, %v", suffix, id, err)
	}
	// Not found.
	if _, err := s.ResolveID("zqzqzq"); errs.From(err).Kind != errs.IssueNotFound {
		t.Errorf("not-found resolve: %v", err)
	}
	// Ambiguous: every ID shares the prefix.
	if _, err := s.Add(AddOptions{Title: "B"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	_, err = s.ResolveID(s.Config.IDPrefix)
	e := errs.From(err)
	if e.Kind != errs.AmbiguousID {
		t.Fatalf("prefix resolve: got %v, want ambiguous", err)
	}
	if len(e.Candidates) != 2 {
		t.Errorf("candidates = %v, want 2", e.Candidates)
	}
}

func TestRemove(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add(AddOptions{Title: "A"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(a.ID, false); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Remove(a.ID, false); errs.From(err).Kind != errs.ClaimConflict {
		t.Errorf("rm doing issue: got %v, want claim-conflict", err)
	}
	if _, err := s.Remove(a.ID, true); err != nil {
		t.Fatalf("forced rm: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.IssuesDir, a.ID+".md")); !os.IsNotExist(err) {
		t.Error("issue file should be deleted")
	}
}

func TestSetAndReopen(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add(AddOptions{Title: "A"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Set(a.ID, "priority", "P0"); err != nil {
		t.Fatalf("set priority: %v", err)
	}
	if _, err := s.Set(a.ID, "tag", "+infra"); err != nil {
		t.Fatalf("set tag: %v", err)
	}
	edited, err := s.Set(a.ID, "title", "renamed")
	if err != nil {
		t.Fatalf("set title: %v", err)
	}
	if edited.Title != "renamed" || edited.Priority != model.PriorityCritical || !edited.HasTag("infra") {
		t.Errorf("edits not applied: %+v", edited)
	}
	if _, err := s.Set(a.ID, "tag", "-infra"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Set(a.ID, "nope", "x"); errs.From(err).Kind != errs.Usage {
		t.Errorf("unknown field: %v", err)
	}

	if _, err := s.Skip(a.ID); err != nil {
		t.Fatal(err)
	}
	reopened, err := s.Reopen(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Status != model.StatusOpen || reopened.CompletedAt != nil || reopened.Owner != "" {
		t.Errorf("reopen left stale state: %+v", reopened)
	}
}

func TestDoctor(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add(AddOptions{Title: "A"})
	if err != nil {
		t.Fatal(err)
	}

	// Inject a missing dep and a broken file directly.
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	issue := s.Issues()[a.ID]
	issue.AddDep(s.Config.IDPrefix + "-gone")
	if err := s.write(issue); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.IssuesDir, s.Config.IDPrefix+"-bad0.md"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := s.Doctor()
	if err != nil {
		t.Fatalf("Doctor: %v", err)
	}
	if report.Clean() {
		t.Error("report should not be clean")
	}
	if len(report.MissingDeps[a.ID]) != 1 {
		t.Errorf("missing deps = %v", report.MissingDeps)
	}
	if len(report.ParseFailures) != 1 {
		t.Errorf("parse failures = %v", report.ParseFailures)
	}
	if len(report.Cycles) != 0 {
		t.Errorf("unexpected cycles: %v", report.Cycles)
	}
}

func TestForceMigrate(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Drop a legacy file into the store.
	legacy := "---\nbrd: 1\nid: " + s.Config.IDPrefix + "-old1\ntitle: \"Old\"\npriority: P2\nstatus: todo\ncreated_at: 2023-01-05T08:00:00Z\n---\n"
	if err := os.WriteFile(filepath.Join(s.IssuesDir, s.Config.IDPrefix+"-old1.md"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := s.ForceMigrate()
	if err != nil {
		t.Fatalf("ForceMigrate: %v", err)
	}
	if n != 1 {
		t.Errorf("migrated %d, want 1", n)
	}

	data, err := os.ReadFile(filepath.Join(s.IssuesDir, s.Config.IDPrefix+"-old1.md"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "schema_version: 9") || strings.Contains(out, "brd: 1") {
		t.Errorf("file not rewritten at current schema:\n%s", out)
	}
}

func TestUpdateConfigPersists(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	err = s.UpdateConfig(func(cfg *config.Config) error {
		cfg.IDPrefix = "core"
		cfg.AutoPush = true
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if s.Config.IDPrefix != "core" {
		t.Errorf("in-memory id_prefix = %q, want core", s.Config.IDPrefix)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Config.IDPrefix != "core" || !reopened.Config.AutoPush {
		t.Errorf("reloaded config = %+v, want id_prefix core and auto_push", reopened.Config)
	}
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	err = s.UpdateConfig(func(cfg *config.Config) error {
		cfg.IDLen = 0
		return nil
	})
	if err == nil {
		t.Fatal("invalid id_len should not be saved")
	}
	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Config.IDLen == 0 {
		t.Error("invalid config reached disk")
	}
}

func TestNoWaitFailsFastWhenLockHeld(t *testing.T) {
	dir := gitRepo(t)
	s, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	held, err := lock.Acquire(s.Repo.LockPath())
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	s.NoWait = true
	_, err = s.Add(AddOptions{Title: "blocked add"})
	if err == nil {
		t.Fatal("Add should fail fast while the lock is held")
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.LockBusy {
		t.Errorf("err = %v, want lock-busy", err)
	}
}

func TestConcurrentAddsSerialize(t *testing.T) {
	dir := gitRepo(t)
	if _, err := Init(dir); err != nil {
		t.Fatal(err)
	}

	// Two independent handles, as two brd processes in sibling worktrees
	// would have. Both contend on the shared lock.
	s1, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	results := make([]*model.Issue, 2)
	errc := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errc[0] = s1.Add(AddOptions{Title: "first"})
	}()
	go func() {
		defer wg.Done()
		results[1], errc[1] = s2.Add(AddOptions{Title: "second"})
	}()
	wg.Wait()

	for i, err := range errc {
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if results[0].ID == results[1].ID {
		t.Fatalf("both adds produced %s", results[0].ID)
	}

	fresh, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.Load(); err != nil {
		t.Fatal(err)
	}
	if len(fresh.Issues()) != 2 {
		t.Fatalf("loaded %d issues, want 2", len(fresh.Issues()))
	}
	for _, r := range results {
		if fresh.Issues()[r.ID] == nil {
			t.Errorf("issue %s missing after concurrent adds", r.ID)
		}
	}
}
