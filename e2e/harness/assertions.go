package harness

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// Assertions provides E2E-specific assertions.
type Assertions struct {
	t *testing.T
}

// NewAssertions creates an assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// OutputContains asserts the output contains all given strings.
func (a *Assertions) OutputContains(output string, expected ...string) {
	a.t.Helper()
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			a.t.Errorf("expected output to contain %q, got:\n%s", exp, truncate(output, 2000))
		}
	}
}

// OutputNotContains asserts the output does not contain any of the given strings.
func (a *Assertions) OutputNotContains(output string, unexpected ...string) {
	a.t.Helper()
	for _, unexp := range unexpected {
		if strings.Contains(output, unexp) {
			a.t.Errorf("expected output NOT to contain %q, got:\n%s", unexp, truncate(output, 2000))
		}
	}
}

// HelpVisible asserts the help overlay is visible.
func (a *Assertions) HelpVisible(output string) {
	a.t.Helper()
	for _, ind := range []string{"awsbrowse keys", "press ? or esc to close"} {
		if !strings.Contains(output, ind) {
			a.t.Errorf("help overlay not visible, missing %q in output:\n%s", ind, truncate(output, 2000))
			return
		}
	}
}

// HelpNotVisible asserts the help overlay is not visible.
func (a *Assertions) HelpNotVisible(output string) {
	a.t.Helper()
	if strings.Contains(output, "awsbrowse keys") {
		a.t.Errorf("help overlay should not be visible, but found it in output")
	}
}

// TabVisible asserts a tab label is visible in the output.
func (a *Assertions) TabVisible(output string, title string) {
	a.t.Helper()
	if !strings.Contains(output, title) {
		a.t.Errorf("expected tab %q to be visible in output:\n%s", title, truncate(output, 2000))
	}
}

// NoError asserts the output doesn't contain error indicators.
func (a *Assertions) NoError(output string) {
	a.t.Helper()
	for _, ind := range []string{"failed to list", "✗", "panic:"} {
		if strings.Contains(output, ind) {
			a.t.Errorf("unexpected error in output: found %q in:\n%s", ind, truncate(output, 2000))
			return
		}
	}
}

// LinesFit asserts no line of output is wider than width cells.
func (a *Assertions) LinesFit(output string, width int) {
	a.t.Helper()
	for i, line := range strings.Split(output, "\n") {
		if w := lipgloss.Width(line); w > width {
			a.t.Errorf("line %d is %d cells wide, want at most %d: %q", i, w, width, line)
		}
	}
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
