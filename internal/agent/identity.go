// Package agent resolves the identity stamped into issue ownership and
// commit messages.
package agent

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvVar overrides every other identity source.
const EnvVar = "BRD_AGENT_ID"

// DefaultID is the last-resort identity when nothing else is configured.
const DefaultID = "default-user"

type identityFile struct {
	AgentID string `toml:"agent_id"`
}

// ID resolves the current agent identity, in order: BRD_AGENT_ID, the
// agent_id field of .braid/agent.toml in the worktree, USER, and finally
// DefaultID with a warning on stderr. The value is not validated for
// uniqueness; that is a deployment concern.
func ID(worktreeRoot string) string {
	if v := os.Getenv(EnvVar); v != "" {
		return v
	}
	path := filepath.Join(worktreeRoot, ".braid", "agent.toml")
	var f identityFile
	if _, err := toml.DecodeFile(path, &f); err == nil && f.AgentID != "" {
		return f.AgentID
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	fmt.Fprintf(os.Stderr, "brd: no agent identity configured; using %q (set %s or .braid/agent.toml)\n", DefaultID, EnvVar)
	return DefaultID
}
