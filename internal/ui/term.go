// Package ui provides terminal styling and output helpers for the brd CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor decides whether output gets ANSI styling. NO_COLOR and
// CLICOLOR=0 disable it, CLICOLOR_FORCE enables it for pipes, otherwise
// it follows TTY detection.
func ShouldUseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case os.Getenv("CLICOLOR") == "0":
		return false
	case os.Getenv("CLICOLOR_FORCE") != "":
		return true
	}
	return IsTerminal()
}

// Issue bodies wrap at the terminal width, but never wider than this.
const bodyWrapCap = 100

// RenderMarkdown renders an issue body through glamour when stdout is a
// color terminal. On any failure the raw markdown comes back unchanged, so
// show always prints something.
func RenderMarkdown(body string) string {
	if !ShouldUseColor() {
		return body
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(bodyWrapWidth()),
	)
	if err != nil {
		return body
	}
	out, err := r.Render(body)
	if err != nil {
		return body
	}
	return out
}

func bodyWrapWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	if w > bodyWrapCap {
		return bodyWrapCap
	}
	return w
}
