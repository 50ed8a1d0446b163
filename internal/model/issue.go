package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentSchemaVersion is the issue schema version this build writes.
const CurrentSchemaVersion = 9

// Status represents the lifecycle state of an issue.
type Status string

const (
	StatusOpen  Status = "open"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
	StatusSkip  Status = "skip"
)

var validStatuses = map[Status]bool{
	StatusOpen:  true,
	StatusDoing: true,
	StatusDone:  true,
	StatusSkip:  true,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !validStatuses[st] {
		return "", fmt.Errorf("invalid status %q: must be one of open, doing, done, skip", s)
	}
	return st, nil
}

func (s Status) String() string { return string(s) }

// Closed reports whether the status is terminal (done or skip).
func (s Status) Closed() bool { return s == StatusDone || s == StatusSkip }

// Priority ranges from 0 (critical) to 3 (low). Written as P0..P3.
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 1
	PriorityMedium   Priority = 2
	PriorityLow      Priority = 3
)

func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	switch s {
	case "0", "P0":
		return PriorityCritical, nil
	case "1", "P1":
		return PriorityHigh, nil
	case "2", "P2":
		return PriorityMedium, nil
	case "3", "P3":
		return PriorityLow, nil
	default:
		return -1, fmt.Errorf("invalid priority %q: must be 0-3 or P0-P3", s)
	}
}

func (p Priority) String() string {
	return fmt.Sprintf("P%d", p)
}

// MarshalYAML writes the canonical P0..P3 form.
func (p Priority) MarshalYAML() (any, error) {
	return p.String(), nil
}

// UnmarshalYAML accepts both P0..P3 and bare integers.
func (p *Priority) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParsePriority(value.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// IssueType classifies the nature of work. Most issues carry no type.
type IssueType string

const (
	TypeDesign IssueType = "design"
	TypeMeta   IssueType = "meta"
)

func ParseIssueType(s string) (IssueType, error) {
	t := IssueType(strings.ToLower(strings.TrimSpace(s)))
	if t != TypeDesign && t != TypeMeta {
		return "", fmt.Errorf("invalid type %q: must be design or meta", s)
	}
	return t, nil
}

func (t IssueType) String() string { return string(t) }

// idRe matches <prefix>-<suffix>: 2-12 lowercase alphanumeric, then 4-10.
var idRe = regexp.MustCompile(`^[a-z0-9]{2,12}-[a-z0-9]{4,10}$`)

// ValidID reports whether s is a well-formed issue ID.
func ValidID(s string) bool { return idRe.MatchString(s) }

// Issue is the core data model for brd. Field order mirrors the canonical
// frontmatter key order.
type Issue struct {
	SchemaVersion int        `yaml:"schema_version"`
	ID            string     `yaml:"id"`
	Title         string     `yaml:"title"`
	Priority      Priority   `yaml:"priority"`
	Status        Status     `yaml:"status"`
	Type          IssueType  `yaml:"issue_type,omitempty"`
	Deps          []string   `yaml:"deps,omitempty"`
	Owner         string     `yaml:"owner,omitempty"`
	Tags          []string   `yaml:"tags,omitempty"`
	CreatedAt     time.Time  `yaml:"created_at"`
	StartedAt     *time.Time `yaml:"started_at,omitempty"`
	CompletedAt   *time.Time `yaml:"completed_at,omitempty"`
	ScheduledFor  *time.Time `yaml:"scheduled_for,omitempty"`
	Acceptance    []string   `yaml:"acceptance,omitempty"`

	// Runtime fields -- not serialized to YAML frontmatter.
	Body     string `yaml:"-"`
	FilePath string `yaml:"-"`
}

// Validate checks that required fields are populated and values are in range.
func (i *Issue) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("issue ID is required")
	}
	if !ValidID(i.ID) {
		return fmt.Errorf("malformed issue ID %q", i.ID)
	}
	if i.Title == "" {
		return fmt.Errorf("issue title is required")
	}
	if !validStatuses[i.Status] {
		return fmt.Errorf("invalid status %q", i.Status)
	}
	if i.Priority < 0 || i.Priority > 3 {
		return fmt.Errorf("priority must be 0-3, got %d", i.Priority)
	}
	if i.Type != "" && i.Type != TypeDesign && i.Type != TypeMeta {
		return fmt.Errorf("invalid type %q", i.Type)
	}
	if i.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if i.Status == StatusDoing {
		if i.Owner == "" {
			return fmt.Errorf("doing issue must have an owner")
		}
		if i.StartedAt == nil {
			return fmt.Errorf("doing issue must have started_at")
		}
	}
	if i.Status.Closed() && i.CompletedAt == nil {
		return fmt.Errorf("%s issue must have completed_at", i.Status)
	}
	return nil
}

// HasDep reports whether id is already in Deps.
func (i *Issue) HasDep(id string) bool {
	for _, d := range i.Deps {
		if d == id {
			return true
		}
	}
	return false
}

// AddDep appends id to Deps unless already present.
// Returns true if the list changed.
func (i *Issue) AddDep(id string) bool {
	if i.HasDep(id) {
		return false
	}
	i.Deps = append(i.Deps, id)
	return true
}

// RemoveDep removes id from Deps. Removing an absent dep is a no-op.
func (i *Issue) RemoveDep(id string) bool {
	for n, d := range i.Deps {
		if d == id {
			i.Deps = append(i.Deps[:n], i.Deps[n+1:]...)
			return true
		}
	}
	return false
}

// HasTag reports whether the issue carries the tag.
func (i *Issue) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag inserts tag preserving set semantics.
func (i *Issue) AddTag(tag string) bool {
	if i.HasTag(tag) {
		return false
	}
	i.Tags = append(i.Tags, tag)
	return true
}

// RemoveTag removes tag if present.
func (i *Issue) RemoveTag(tag string) bool {
	for n, t := range i.Tags {
		if t == tag {
			i.Tags = append(i.Tags[:n], i.Tags[n+1:]...)
			return true
		}
	}
	return false
}
