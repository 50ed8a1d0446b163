package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/braid-dev/brd/internal/agent"
	"github.com/braid-dev/brd/internal/codec"
	"github.com/braid-dev/brd/internal/graph"
	"github.com/braid-dev/brd/internal/model"
	"github.com/braid-dev/brd/internal/store"
)

// Full workflow: init -> add -> dep -> ready -> start -> done -> doctor.
// No mocks. Real git repo and issue files on disk.

func setupRepo(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "tester"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	t.Setenv(agent.EnvVar, "integration-tester")
	return dir
}

func TestFullWorkflow(t *testing.T) {
	dir := setupRepo(t)

	// 1. Init.
	s, err := store.Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	// 2. Create a small dependency chain plus an unrelated critical issue.
	design, err := s.Add(store.AddOptions{Title: "Design auth flow", Type: "design", Priority: "P1"})
	if err != nil {
		t.Fatalf("add design: %v", err)
	}
	impl, err := s.Add(store.AddOptions{Title: "Implement auth flow", Priority: "P1", Deps: []string{design.ID}})
	if err != nil {
		t.Fatalf("add impl: %v", err)
	}
	bug, err := s.Add(store.AddOptions{Title: "Fix login crash", Priority: "P0", Tags: []string{"critical"}})
	if err != nil {
		t.Fatalf("add bug: %v", err)
	}

	// 3. Readiness: impl is blocked behind design, bug sorts first.
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	g := graph.Build(s.Issues())
	ready := g.Ready()
	if len(ready) != 2 {
		t.Fatalf("ready = %d issues, want 2", len(ready))
	}
	if ready[0].ID != bug.ID {
		t.Errorf("ready[0] = %s, want the P0 bug %s", ready[0].ID, bug.ID)
	}
	if !g.IsBlocked(s.Issues()[impl.ID]) {
		t.Error("impl should be blocked behind design")
	}

	// 4. Auto-pick starts the highest-priority ready issue.
	picked, err := s.Start("", false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if picked.ID != bug.ID {
		t.Errorf("picked %s, want %s", picked.ID, bug.ID)
	}
	if picked.Owner != "integration-tester" || picked.StartedAt == nil {
		t.Errorf("claim incomplete: %+v", picked)
	}

	// 5. Finish the bug; design becomes the next pick.
	if _, err := s.Done(bug.ID, false, nil); err != nil {
		t.Fatalf("Done bug: %v", err)
	}
	next, err := s.Start("", false)
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != design.ID {
		t.Errorf("next pick = %s, want %s", next.ID, design.ID)
	}

	// 6. Closing the design with a result propagates the result to dependents.
	extra, err := s.Add(store.AddOptions{Title: "Write auth docs"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Done(design.ID, false, []string{extra.ID}); err != nil {
		t.Fatalf("Done design: %v", err)
	}
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	deps := s.Issues()[impl.ID].Deps
	if strings.Join(deps, " ") != design.ID+" "+extra.ID {
		t.Errorf("impl.deps = %v, want [%s %s]", deps, design.ID, extra.ID)
	}

	// 7. The propagated result keeps impl blocked until it too is done.
	g = graph.Build(s.Issues())
	if g.IsReady(s.Issues()[impl.ID]) {
		t.Error("impl should still be blocked by the propagated result")
	}
	if _, err := s.Done(extra.ID, false, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	g = graph.Build(s.Issues())
	if !g.IsReady(s.Issues()[impl.ID]) {
		t.Error("impl should be ready once all deps are done")
	}

	// 8. Files on disk round-trip byte-stable through the codec.
	path := filepath.Join(s.IssuesDir, impl.ID+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := codec.Parse(data, impl.ID)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(codec.Serialize(parsed)) != string(data) {
		t.Error("serialize(parse(file)) differs from file")
	}

	// 9. Doctor on a healthy store.
	report, err := s.Doctor()
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Errorf("doctor found problems in a healthy store: %+v", report)
	}
}

func TestOpenFromSubdirectory(t *testing.T) {
	dir := setupRepo(t)
	if _, err := store.Init(dir); err != nil {
		t.Fatal(err)
	}

	sub := filepath.Join(dir, "src", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := store.Open(sub)
	if err != nil {
		t.Fatalf("Open from subdirectory: %v", err)
	}
	if s.Repo.WorktreeRoot != dir {
		t.Errorf("worktree root = %s, want %s", s.Repo.WorktreeRoot, dir)
	}
	if s.IssuesDir != filepath.Join(dir, ".braid", "issues") {
		t.Errorf("issues dir = %s", s.IssuesDir)
	}
}

func TestLegacyFilesReadAndMigrate(t *testing.T) {
	dir := setupRepo(t)
	s, err := store.Init(dir)
	if err != nil {
		t.Fatal(err)
	}

	// A v2-era file: schema_version key exists but labels not yet renamed
	// and updated_at still present.
	prefix := s.Config.IDPrefix
	legacy := "---\n" +
		"schema_version: 2\n" +
		"id: " + prefix + "-old7\n" +
		"title: \"Legacy issue\"\n" +
		"priority: P1\n" +
		"status: doing\n" +
		"labels: [infra]\n" +
		"owner: alice\n" +
		"created_at: 2023-04-01T10:00:00Z\n" +
		"updated_at: 2023-04-02T11:30:00Z\n" +
		"---\n\nOld body.\n"
	if err := os.WriteFile(filepath.Join(s.IssuesDir, prefix+"-old7.md"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	// Reads migrate in memory without touching the file.
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	issue := s.Issues()[prefix+"-old7"]
	if issue == nil {
		t.Fatal("legacy issue not loaded")
	}
	if !issue.HasTag("infra") {
		t.Errorf("labels should have become tags: %v", issue.Tags)
	}
	if issue.StartedAt == nil {
		t.Error("doing issue should derive started_at from updated_at")
	}
	onDisk, _ := os.ReadFile(filepath.Join(s.IssuesDir, prefix+"-old7.md"))
	if !strings.Contains(string(onDisk), "schema_version: 2") {
		t.Error("read path must not rewrite the file")
	}

	// Forced migration rewrites at the current schema.
	n, err := s.ForceMigrate()
	if err != nil {
		t.Fatal(err)
	}
	if n < 1 {
		t.Errorf("migrated %d files, want at least 1", n)
	}
	onDisk, _ = os.ReadFile(filepath.Join(s.IssuesDir, prefix+"-old7.md"))
	out := string(onDisk)
	if !strings.Contains(out, "schema_version: "+strconv.Itoa(model.CurrentSchemaVersion)) {
		t.Errorf("file not at current schema:\n%s", out)
	}
	if strings.Contains(out, "labels:") || strings.Contains(out, "updated_at:") {
		t.Errorf("legacy keys survived migration:\n%s", out)
	}
}
