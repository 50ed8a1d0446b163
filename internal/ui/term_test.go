package ui

import "testing"

func TestShouldUseColorEnv(t *testing.T) {
	// Tests run without a TTY, so only the env overrides matter here.
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR", "")
	t.Setenv("CLICOLOR_FORCE", "")
	if ShouldUseColor() {
		t.Error("no TTY and no overrides should disable color")
	}

	t.Setenv("CLICOLOR_FORCE", "1")
	if !ShouldUseColor() {
		t.Error("CLICOLOR_FORCE should enable color without a TTY")
	}

	t.Setenv("NO_COLOR", "1")
	if ShouldUseColor() {
		t.Error("NO_COLOR wins over CLICOLOR_FORCE")
	}

	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR", "0")
	if ShouldUseColor() {
		t.Error("CLICOLOR=0 should disable color")
	}
}

func TestRenderMarkdownPassthroughWithoutColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	body := "# Heading\n\nplain body\n"
	if got := RenderMarkdown(body); got != body {
		t.Errorf("plain mode should return the body unchanged, got %q", got)
	}
}
