package keys

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDefaultKeyMap_SingleKeys(t *testing.T) {
	tests := []struct {
		name   string
		msg    tea.KeyMsg
		action Action
	}{
		{"j moves down", runes("j"), ActionDown},
		{"arrow down", tea.KeyMsg{Type: tea.KeyDown}, ActionDown},
		{"k moves up", runes("k"), ActionUp},
		{"ctrl+d", tea.KeyMsg{Type: tea.KeyCtrlD}, ActionHalfPageDown},
		{"ctrl+u", tea.KeyMsg{Type: tea.KeyCtrlU}, ActionHalfPageUp},
		{"pgdown", tea.KeyMsg{Type: tea.KeyPgDown}, ActionPageDown},
		{"G goes to bottom", runes("G"), ActionBottom},
		{"l expands", runes("l"), ActionExpand},
		{"h collapses", runes("h"), ActionCollapse},
		{"enter toggles", tea.KeyMsg{Type: tea.KeyEnter}, ActionToggle},
		{"space toggles", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, ActionToggle},
		{"slash filters", runes("/"), ActionFilter},
		{"esc clears filter", tea.KeyMsg{Type: tea.KeyEsc}, ActionClearFilter},
		{"s sorts", runes("s"), ActionSort},
		{"S reverses", runes("S"), ActionReverseSort},
		{"y yanks", runes("y"), ActionYank},
		{"tab", tea.KeyMsg{Type: tea.KeyTab}, ActionNextTab},
		{"shift+tab", tea.KeyMsg{Type: tea.KeyShiftTab}, ActionPrevTab},
		{"q quits", runes("q"), ActionQuit},
		{"ctrl+c quits", tea.KeyMsg{Type: tea.KeyCtrlC}, ActionQuit},
		{"unbound", runes("z"), ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km := DefaultKeyMap()
			action, pending := km.Resolve(tt.msg)
			assert.False(t, pending)
			assert.Equal(t, tt.action, action, "got %s", action)
		})
	}
}

func TestKeyMap_Sequence(t *testing.T) {
	t.Run("gg goes to top", func(t *testing.T) {
		km := DefaultKeyMap()

		action, pending := km.Resolve(runes("g"))
		assert.True(t, pending)
		assert.Equal(t, ActionNone, action)
		assert.Equal(t, "g", km.Pending())

		action, pending = km.Resolve(runes("g"))
		assert.False(t, pending)
		assert.Equal(t, ActionTop, action)
		assert.Empty(t, km.Pending())
	})

	t.Run("broken sequence resolves the breaking key", func(t *testing.T) {
		km := DefaultKeyMap()
		km.Resolve(runes("g"))

		action, pending := km.Resolve(runes("j"))
		assert.False(t, pending)
		assert.Equal(t, ActionDown, action)
		assert.Empty(t, km.Pending())
	})

	t.Run("special key breaks sequence", func(t *testing.T) {
		km := DefaultKeyMap()
		km.Resolve(runes("g"))

		action, _ := km.Resolve(tea.KeyMsg{Type: tea.KeyUp})
		assert.Equal(t, ActionUp, action)
		assert.Empty(t, km.Pending())
	})

	t.Run("reset drops the buffer", func(t *testing.T) {
		km := DefaultKeyMap()
		km.Resolve(runes("g"))
		km.Reset()

		action, pending := km.Resolve(runes("G"))
		assert.False(t, pending)
		assert.Equal(t, ActionBottom, action)
	})
}

func TestKeyMap_Custom(t *testing.T) {
	km := NewKeyMap()
	km.Bind(ActionRefresh, "refresh", "r")
	km.BindSequence("zz", ActionYank)

	action, _ := km.Resolve(runes("r"))
	assert.Equal(t, ActionRefresh, action)

	_, pending := km.Resolve(runes("z"))
	assert.True(t, pending)
	action, _ = km.Resolve(runes("z"))
	assert.Equal(t, ActionYank, action)

	assert.Len(t, km.Bindings(), 1)
	assert.Equal(t, []string{"r"}, km.Bindings()[0].Keys())
	assert.Equal(t, "refresh", km.Bindings()[0].Help())
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "half-page-down", ActionHalfPageDown.String())
	assert.Equal(t, "unknown", Action(999).String())
}

func TestKeyMap_ShortHelp(t *testing.T) {
	help := DefaultKeyMap().ShortHelp()
	assert.Contains(t, help, "/ filter")
	assert.Contains(t, help, "q quit")
	assert.NotContains(t, help, "move down")
}
