package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// Ayu theme color palette
var (
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}

	// Status colors
	ColorStatusDoing = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorStatusDone = lipgloss.AdaptiveColor{
		Light: "#9099a1",
		Dark:  "#8090a0",
	}
	ColorStatusBlocked = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f26d78",
	}

	// Priority colors
	ColorPriorityP0 = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorPriorityP1 = lipgloss.AdaptiveColor{
		Light: "#ff8f40",
		Dark:  "#ff8f40",
	}
	ColorPriorityP2 = lipgloss.AdaptiveColor{
		Light: "#e6b450",
		Dark:  "#e6b450",
	}

	// Type colors
	ColorTypeDesign = lipgloss.AdaptiveColor{
		Light: "#d2a6ff",
		Dark:  "#d2a6ff",
	}
	ColorTypeMeta = lipgloss.AdaptiveColor{
		Light: "#95e6cb",
		Dark:  "#95e6cb",
	}
)

// Styles
var (
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	BoldStyle   = lipgloss.NewStyle().Bold(true)

	StatusDoingStyle   = lipgloss.NewStyle().Foreground(ColorStatusDoing)
	StatusDoneStyle    = lipgloss.NewStyle().Foreground(ColorStatusDone)
	StatusBlockedStyle = lipgloss.NewStyle().Foreground(ColorStatusBlocked)

	PriorityP0Style = lipgloss.NewStyle().Foreground(ColorPriorityP0).Bold(true)
	PriorityP1Style = lipgloss.NewStyle().Foreground(ColorPriorityP1)
	PriorityP2Style = lipgloss.NewStyle().Foreground(ColorPriorityP2)

	TypeDesignStyle = lipgloss.NewStyle().Foreground(ColorTypeDesign)
	TypeMetaStyle   = lipgloss.NewStyle().Foreground(ColorTypeMeta)
)

// Status icons
const (
	StatusIconOpen    = "○"
	StatusIconDoing   = "◐"
	StatusIconBlocked = "●"
	StatusIconDone    = "✓"
	StatusIconSkip    = "⊘"
	PriorityIcon      = "●"
)

// RenderStatusIcon returns the icon for a status with coloring. Blocked is
// not a stored status, so callers pass it explicitly.
func RenderStatusIcon(status string, blocked bool) string {
	if blocked && status == "open" {
		return StatusBlockedStyle.Render(StatusIconBlocked)
	}
	switch status {
	case "open":
		return StatusIconOpen
	case "doing":
		return StatusDoingStyle.Render(StatusIconDoing)
	case "done":
		return StatusDoneStyle.Render(StatusIconDone)
	case "skip":
		return MutedStyle.Render(StatusIconSkip)
	default:
		return "?"
	}
}

// RenderStatus renders a status string with coloring.
func RenderStatus(status string) string {
	switch status {
	case "doing":
		return StatusDoingStyle.Render(status)
	case "done":
		return StatusDoneStyle.Render(status)
	case "skip":
		return MutedStyle.Render(status)
	default:
		return status
	}
}

// RenderPriority renders priority with icon and color.
func RenderPriority(priority int) string {
	label := fmt.Sprintf("%s P%d", PriorityIcon, priority)
	switch priority {
	case 0:
		return PriorityP0Style.Render(label)
	case 1:
		return PriorityP1Style.Render(label)
	case 2:
		return PriorityP2Style.Render(label)
	default:
		return label
	}
}

// RenderType renders an issue type with coloring.
func RenderType(issueType string) string {
	switch issueType {
	case "design":
		return TypeDesignStyle.Render(issueType)
	case "meta":
		return TypeMetaStyle.Render(issueType)
	default:
		return issueType
	}
}

// RenderMuted renders text in muted gray.
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderBold renders text in bold.
func RenderBold(s string) string {
	return BoldStyle.Render(s)
}

// RenderAccent renders text with accent color.
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderClosedLine renders an entire line in the done/dimmed style.
func RenderClosedLine(line string) string {
	return StatusDoneStyle.Render(line)
}
