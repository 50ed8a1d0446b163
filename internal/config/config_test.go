package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-dev/brd/internal/errs"
)

func TestDerivePrefix(t *testing.T) {
	cases := map[string]string{
		"braid":      "brai",
		"My-Repo":    "myre",
		"ab":         "abxx",
		"":           "xxxx",
		"__x1__y2z3": "x1y2",
		"A":          "axxx",
	}
	for in, want := range cases {
		assert.Equal(t, want, DerivePrefix(in), "DerivePrefix(%q)", in)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".braid"), 0o755))
	path := Path(dir)

	cfg := Default("myproject")
	cfg.IssuesBranch = "braid-issues"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.Error(t, err)
	assert.Equal(t, errs.ControlRootInvalid, errs.From(err).Kind)
}

func TestValidate(t *testing.T) {
	base := *Default("proj")

	newer := base
	newer.SchemaVersion = 999
	err := newer.Validate()
	require.Error(t, err)
	assert.Equal(t, 16, errs.From(err).ExitCode(), "repo newer than tool is a parse error")
	assert.Contains(t, err.Error(), "999")

	shortPrefix := base
	shortPrefix.IDPrefix = "x"
	assert.Error(t, shortPrefix.Validate())

	badLen := base
	badLen.IDLen = 3
	assert.Error(t, badLen.Validate())
	badLen.IDLen = 11
	assert.Error(t, badLen.Validate())

	both := base
	both.IssuesBranch = "braid-issues"
	both.IssuesRepo = "/elsewhere"
	assert.Error(t, both.Validate())

	branchOnly := base
	branchOnly.IssuesBranch = "braid-issues"
	assert.NoError(t, branchOnly.Validate())
}
