// Package format renders issues for terminal and JSON consumers.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/braid-dev/brd/internal/model"
	"github.com/braid-dev/brd/internal/ui"
)

// Table renders a compact issue list with status icons and colors.
// Format: STATUS_ICON ID [PRIORITY] [TYPE] @OWNER [TAGS] - TITLE
// blocked reports whether an issue has unresolved dependencies; pass nil
// to skip the blocked marker.
func Table(w io.Writer, issues []*model.Issue, blocked func(id string) bool) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}

	for _, issue := range issues {
		title := issue.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}

		if issue.Status.Closed() {
			// Entire line muted for closed issues.
			line := fmt.Sprintf("%s %s [P%d] - %s",
				ui.StatusIconDone, issue.ID, issue.Priority, title)
			if issue.Status == model.StatusSkip {
				line = fmt.Sprintf("%s %s [P%d] - %s",
					ui.StatusIconSkip, issue.ID, issue.Priority, title)
			}
			fmt.Fprintln(w, ui.RenderClosedLine(line))
			continue
		}

		isBlocked := blocked != nil && blocked(issue.ID)

		// Build colored line.
		var parts []string
		parts = append(parts, ui.RenderStatusIcon(string(issue.Status), isBlocked))
		parts = append(parts, issue.ID)
		parts = append(parts, fmt.Sprintf("[%s]", ui.RenderPriority(int(issue.Priority))))
		if issue.Type != "" {
			parts = append(parts, fmt.Sprintf("[%s]", ui.RenderType(string(issue.Type))))
		}
		if issue.Owner != "" {
			parts = append(parts, fmt.Sprintf("@%s", issue.Owner))
		}
		if len(issue.Tags) > 0 {
			parts = append(parts, fmt.Sprintf("[%s]", strings.Join(issue.Tags, ", ")))
		}
		parts = append(parts, fmt.Sprintf("- %s", title))

		fmt.Fprintln(w, strings.Join(parts, " "))
	}
	fmt.Fprintf(w, "\n%d issue(s)\n", len(issues))
}

// Detail renders a single issue with colored output and markdown body.
// deps describes each dependency's state for the Deps section; pass nil
// when the caller has no graph at hand.
func Detail(w io.Writer, issue *model.Issue, deps map[string]string) {
	status := string(issue.Status)

	// Header: STATUS_ICON ID . TITLE [PRIORITY . STATUS]
	fmt.Fprintf(w, "%s %s %s %s [%s %s %s]\n",
		ui.RenderStatusIcon(status, false),
		issue.ID,
		ui.RenderMuted("."),
		ui.RenderBold(issue.Title),
		ui.RenderPriority(int(issue.Priority)),
		ui.RenderMuted("."),
		ui.RenderStatus(status),
	)

	// Metadata line 1: Owner . Type
	var meta1 []string
	if issue.Owner != "" {
		meta1 = append(meta1, fmt.Sprintf("%s %s", ui.RenderAccent("Owner:"), issue.Owner))
	}
	if issue.Type != "" {
		meta1 = append(meta1, fmt.Sprintf("%s %s", ui.RenderAccent("Type:"), ui.RenderType(string(issue.Type))))
	}
	if len(meta1) > 0 {
		fmt.Fprintln(w, strings.Join(meta1, fmt.Sprintf(" %s ", ui.RenderMuted("."))))
	}

	// Metadata line 2: timestamps
	stamps := []string{fmt.Sprintf("%s %s", ui.RenderAccent("Created:"), issue.CreatedAt.Format("2006-01-02 15:04"))}
	if issue.StartedAt != nil {
		stamps = append(stamps, fmt.Sprintf("%s %s", ui.RenderAccent("Started:"), issue.StartedAt.Format("2006-01-02 15:04")))
	}
	if issue.CompletedAt != nil {
		stamps = append(stamps, fmt.Sprintf("%s %s", ui.RenderAccent("Completed:"), issue.CompletedAt.Format("2006-01-02 15:04")))
	}
	fmt.Fprintln(w, strings.Join(stamps, fmt.Sprintf(" %s ", ui.RenderMuted("."))))

	if issue.ScheduledFor != nil {
		fmt.Fprintf(w, "%s %s\n", ui.RenderAccent("Scheduled:"), issue.ScheduledFor.Format("2006-01-02"))
	}
	if len(issue.Tags) > 0 {
		fmt.Fprintf(w, "%s %s\n", ui.RenderAccent("Tags:"), strings.Join(issue.Tags, ", "))
	}
	if len(issue.Deps) > 0 {
		var rendered []string
		for _, d := range issue.Deps {
			if state, ok := deps[d]; ok && state != "" {
				rendered = append(rendered, fmt.Sprintf("%s (%s)", d, ui.RenderStatus(state)))
			} else {
				rendered = append(rendered, d)
			}
		}
		fmt.Fprintf(w, "%s %s\n", ui.RenderAccent("Deps:"), strings.Join(rendered, ", "))
	}
	if len(issue.Acceptance) > 0 {
		fmt.Fprintf(w, "%s\n", ui.RenderAccent("Acceptance:"))
		for _, a := range issue.Acceptance {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}

	if issue.Body != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, ui.RenderMarkdown(issue.Body))
	}
}

// Short renders a one-line summary of an issue.
func Short(w io.Writer, issue *model.Issue) {
	fmt.Fprintf(w, "%s %s [%s] %s (%s)\n",
		ui.RenderStatusIcon(string(issue.Status), false),
		issue.ID,
		ui.RenderStatus(string(issue.Status)),
		issue.Title,
		ui.RenderPriority(int(issue.Priority)),
	)
}

// issueJSON is the machine-readable projection of an issue. Timestamps are
// RFC3339 strings so the shape is stable across consumers.
type issueJSON struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Priority     string   `json:"priority"`
	Status       string   `json:"status"`
	Type         string   `json:"issue_type,omitempty"`
	Deps         []string `json:"deps"`
	Owner        string   `json:"owner,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CreatedAt    string   `json:"created_at"`
	StartedAt    string   `json:"started_at,omitempty"`
	CompletedAt  string   `json:"completed_at,omitempty"`
	ScheduledFor string   `json:"scheduled_for,omitempty"`
	Acceptance   []string `json:"acceptance,omitempty"`
	Body         string   `json:"body,omitempty"`
}

func toJSON(issue *model.Issue) issueJSON {
	stamp := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}
	deps := issue.Deps
	if deps == nil {
		deps = []string{}
	}
	return issueJSON{
		ID:           issue.ID,
		Title:        issue.Title,
		Priority:     issue.Priority.String(),
		Status:       string(issue.Status),
		Type:         string(issue.Type),
		Deps:         deps,
		Owner:        issue.Owner,
		Tags:         issue.Tags,
		CreatedAt:    issue.CreatedAt.UTC().Format(time.RFC3339),
		StartedAt:    stamp(issue.StartedAt),
		CompletedAt:  stamp(issue.CompletedAt),
		ScheduledFor: stamp(issue.ScheduledFor),
		Acceptance:   issue.Acceptance,
		Body:         issue.Body,
	}
}

// JSON outputs issues as a JSON array.
func JSON(w io.Writer, issues []*model.Issue) error {
	out := make([]issueJSON, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toJSON(issue))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// JSONSingle outputs a single issue as JSON.
func JSONSingle(w io.Writer, issue *model.Issue) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(issue))
}
