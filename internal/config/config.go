// Package config loads and saves the per-repo .braid/config.toml document.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/braid-dev/brd/internal/errs"
)

// CurrentSchemaVersion is the config schema this build understands.
const CurrentSchemaVersion = 9

// DefaultIDLen is the suffix length written by init.
const DefaultIDLen = 4

// Config is the repo-level braid configuration.
type Config struct {
	SchemaVersion int    `toml:"schema_version"`
	IDPrefix      string `toml:"id_prefix"`
	IDLen         int    `toml:"id_len"`
	IssuesBranch  string `toml:"issues_branch,omitempty"`
	IssuesRepo    string `toml:"issues_repo,omitempty"`
	AutoPull      bool   `toml:"auto_pull"`
	AutoPush      bool   `toml:"auto_push"`
}

// Default returns the config init writes for a repository directory name.
func Default(repoDirName string) *Config {
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		IDPrefix:      DerivePrefix(repoDirName),
		IDLen:         DefaultIDLen,
		AutoPull:      true,
		AutoPush:      true,
	}
}

// DerivePrefix builds an ID prefix from a repository directory name: the
// first four ASCII-alphanumeric characters lowercased, right-padded with x.
func DerivePrefix(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if sb.Len() == 4 {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		}
	}
	for sb.Len() < 4 {
		sb.WriteByte('x')
	}
	return sb.String()
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ControlRootInvalid, err, "no braid config at %s; run brd init", path)
		}
		return nil, errs.Parse(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the structural constraints on a loaded config.
func (c *Config) Validate() error {
	if c.SchemaVersion > CurrentSchemaVersion {
		return errs.New(errs.ParseError,
			"repo config schema_version %d is newer than supported version %d; upgrade brd",
			c.SchemaVersion, CurrentSchemaVersion)
	}
	if n := len(c.IDPrefix); n < 2 || n > 12 {
		return errs.New(errs.ControlRootInvalid, "id_prefix must be 2-12 characters, got %q", c.IDPrefix)
	}
	if c.IDLen < 4 || c.IDLen > 10 {
		return errs.New(errs.ControlRootInvalid, "id_len must be 4-10, got %d", c.IDLen)
	}
	if c.IssuesBranch != "" && c.IssuesRepo != "" {
		return errs.New(errs.ControlRootInvalid, "issues_branch and issues_repo are mutually exclusive")
	}
	return nil
}

// Save writes the config atomically via temp-file-rename.
func (c *Config) Save(path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return errs.IO(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.IO(err, "rename %s", path)
	}
	return nil
}

// Path returns the config file path under a worktree root.
func Path(worktreeRoot string) string {
	return filepath.Join(worktreeRoot, ".braid", "config.toml")
}
