// Package codec reads and writes issue files: YAML frontmatter between ---
// markers followed by a markdown body. Reads run the migration pipeline so
// callers only ever see the current schema.
package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/braid-dev/brd/internal/migrate"
	"github.com/braid-dev/brd/internal/model"
)

// Parse decodes an issue file. stem is the file name without extension and
// must equal the id field.
func Parse(data []byte, stem string) (*model.Issue, error) {
	content := string(data)
	trimmed := strings.TrimLeft(content, " \t\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return nil, fmt.Errorf("no frontmatter: file must start with ---")
	}

	// Skip the opening marker line.
	open := strings.Index(trimmed, "\n")
	if open < 0 {
		return nil, fmt.Errorf("no frontmatter: missing closing ---")
	}
	rest := trimmed[open+1:]

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, fmt.Errorf("no frontmatter: missing closing ---")
	}
	fmText := rest[:end+1]

	body := ""
	if nl := strings.Index(rest[end+1:], "\n"); nl >= 0 {
		body = rest[end+1+nl+1:]
		// The canonical form has one blank line between marker and body.
		body = strings.TrimPrefix(body, "\n")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fmText), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter is not a mapping")
	}
	mapping := doc.Content[0]

	if err := migrate.Apply(mapping); err != nil {
		return nil, err
	}

	var issue model.Issue
	if err := mapping.Decode(&issue); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	if issue.ID != stem {
		return nil, fmt.Errorf("id %q does not match file stem %q", issue.ID, stem)
	}
	issue.Body = body
	return &issue, nil
}

// Serialize converts an issue to its canonical on-disk form. The emitted
// schema_version is always the current one.
func Serialize(issue *model.Issue) []byte {
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("schema_version: %d\n", model.CurrentSchemaVersion))
	sb.WriteString(fmt.Sprintf("id: %s\n", issue.ID))
	sb.WriteString(fmt.Sprintf("title: %q\n", issue.Title))
	sb.WriteString(fmt.Sprintf("priority: %s\n", issue.Priority))
	sb.WriteString(fmt.Sprintf("status: %s\n", issue.Status))
	if issue.Type != "" {
		sb.WriteString(fmt.Sprintf("issue_type: %s\n", issue.Type))
	}
	writeFlowList(&sb, "deps", issue.Deps)
	if issue.Owner != "" {
		sb.WriteString(fmt.Sprintf("owner: %q\n", issue.Owner))
	}
	writeFlowList(&sb, "tags", issue.Tags)
	sb.WriteString(fmt.Sprintf("created_at: %s\n", stamp(issue.CreatedAt)))
	if issue.StartedAt != nil {
		sb.WriteString(fmt.Sprintf("started_at: %s\n", stamp(*issue.StartedAt)))
	}
	if issue.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("completed_at: %s\n", stamp(*issue.CompletedAt)))
	}
	if issue.ScheduledFor != nil {
		sb.WriteString(fmt.Sprintf("scheduled_for: %s\n", stamp(*issue.ScheduledFor)))
	}
	if len(issue.Acceptance) > 0 {
		sb.WriteString("acceptance:\n")
		for _, a := range issue.Acceptance {
			sb.WriteString(fmt.Sprintf("  - %q\n", a))
		}
	}
	sb.WriteString("---\n")
	if issue.Body != "" {
		sb.WriteString("\n")
		sb.WriteString(issue.Body)
		if !strings.HasSuffix(issue.Body, "\n") {
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String())
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// writeFlowList emits key: ["a", "b"]. Values are always quoted so tags
// containing commas, colons or YAML syntax survive the round trip.
func writeFlowList(sb *strings.Builder, key string, vals []string) {
	if len(vals) == 0 {
		return
	}
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	sb.WriteString(fmt.Sprintf("%s: [%s]\n", key, strings.Join(quoted, ", ")))
}

// WriteAtomic writes data to path via a temp file in the same directory and
// a rename, so readers never observe a half-written file. An interrupted
// write leaves a .tmp.<pid> sidecar behind; these are harmless.
func WriteAtomic(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// WriteIssue serializes issue to dir/<id>.md atomically.
func WriteIssue(dir string, issue *model.Issue) error {
	path := filepath.Join(dir, issue.ID+".md")
	if err := WriteAtomic(path, Serialize(issue)); err != nil {
		return err
	}
	issue.FilePath = path
	return nil
}

// Failure records a file that could not be parsed during LoadAll.
type Failure struct {
	Path string
	Err  error
}

// LoadAll parses every *.md file under dir. Unparseable files are reported
// as failures without aborting the load. A missing dir yields an empty store.
func LoadAll(dir string) (map[string]*model.Issue, []Failure, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]*model.Issue{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", dir, err)
	}

	issues := make(map[string]*model.Issue, len(entries))
	var failures []Failure
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, Failure{Path: path, Err: err})
			continue
		}
		stem := strings.TrimSuffix(name, ".md")
		issue, err := Parse(data, stem)
		if err != nil {
			failures = append(failures, Failure{Path: path, Err: err})
			continue
		}
		issue.FilePath = path
		issues[issue.ID] = issue
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	return issues, failures, nil
}
