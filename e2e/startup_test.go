package e2e

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/awsbrowse/e2e/harness"
	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/tui/components"
	"github.com/artpar/awsbrowse/internal/tui/views"
)

func TestActualStartup(t *testing.T) {
	h := harness.New(t, harness.Config{})
	src, err := fixture.Open(h.InventoryPath())
	require.NoError(t, err)
	defer src.Close()

	// Exactly like root.go does it, before any listing arrives.
	view := views.NewMainView(context.Background(), src, components.TableOptions{})
	defer view.Close()
	assert.Empty(t, view.View())

	// Init marks every table loading; its commands are never run here.
	_ = view.Init()

	// tea.Program sends the window size first.
	updated, _ := view.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view = updated.(*views.MainView)

	output := view.View()
	assert.Contains(t, output, "Buckets …")
	assert.Contains(t, output, "loading buckets")

	// Keys before the first listing must not panic.
	for _, key := range []string{"j", "l", "h", "y", "s", "G"} {
		updated, _ = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		view = updated.(*views.MainView)
	}
	assert.NotEmpty(t, view.View())
}

func TestStartup_ThroughHarness(t *testing.T) {
	h := harness.New(t, harness.Config{})
	s := h.TUI().Start(t)

	a := harness.NewAssertions(t)
	out := s.Output()
	a.NoError(out)
	for _, title := range []string{"1 Buckets (3)", "2 Stacks (1)", "3 Functions (1)", "4 Roles (2)"} {
		a.TabVisible(out, title)
	}
	a.OutputContains(out, "fixture "+h.InventoryPath())
	a.LinesFit(out, 120)
}
