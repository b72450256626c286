package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/tui"
	"github.com/artpar/awsbrowse/internal/tui/components"
)

const viewInventory = `
bucket:
  - name: logs
  - name: assets
    children:
      - name: a.txt
stack:
  - name: network
    status: CREATE_COMPLETE
function:
  - name: resize
role:
  - name: deploy
  - name: lambda-exec
`

func newView(t *testing.T) *MainView {
	t.Helper()
	inv, err := fixture.Parse([]byte(viewInventory))
	require.NoError(t, err)

	v := NewMainView(context.Background(), fixture.New(inv), components.TableOptions{})
	t.Cleanup(v.Close)
	v.notifyFor = time.Millisecond
	v.SetSize(120, 30)
	settle(v, v.Init())
	return v
}

// settle runs cmd and feeds every message the view routes back into it.
// Notification expiry and anything else is returned instead.
func settle(v *MainView, cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case components.ListedMsg, components.ChildMsg, components.CopyMsg, tui.StatusMsg:
			_, c := v.Update(msg)
			queue = append(queue, c)
		default:
			out = append(out, msg)
		}
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(v *MainView, keys ...string) []tea.Msg {
	var out []tea.Msg
	for _, k := range keys {
		_, cmd := v.Update(key(k))
		out = append(out, settle(v, cmd)...)
	}
	return out
}

func TestNewMainView(t *testing.T) {
	t.Run("one table per kind in tab order", func(t *testing.T) {
		v := newView(t)
		var kinds []resources.Kind
		for _, tbl := range v.Tables() {
			kinds = append(kinds, tbl.Kind())
		}
		assert.Equal(t, resources.ListingKinds(), kinds)
		assert.Equal(t, resources.KindBucket, v.Active().Kind())
		assert.True(t, v.Active().Focused())
	})

	t.Run("init lists every kind", func(t *testing.T) {
		v := newView(t)
		for _, tbl := range v.Tables() {
			assert.False(t, tbl.Loading(), tbl.Title())
			assert.NotEmpty(t, tbl.Browser().Items(), tbl.Title())
		}
		view := v.View()
		assert.Contains(t, view, "1 Buckets (2)")
		assert.Contains(t, view, "4 Roles (2)")
	})

	t.Run("resize reaches tables", func(t *testing.T) {
		v := newView(t)
		v.Update(tea.WindowSizeMsg{Width: 90, Height: 20})
		assert.Equal(t, 90, v.Width())
		assert.Equal(t, 20, v.Height())
		assert.Equal(t, 18, v.Active().Height())
	})
}

func TestMainView_Tabs(t *testing.T) {
	t.Run("tab cycles forward", func(t *testing.T) {
		v := newView(t)
		send(v, "tab")
		assert.Equal(t, resources.KindStack, v.Active().Kind())
		assert.False(t, v.Tables()[0].Focused())
	})

	t.Run("shift+tab wraps backward", func(t *testing.T) {
		v := newView(t)
		send(v, "shift+tab")
		assert.Equal(t, resources.KindRole, v.Active().Kind())
	})

	t.Run("number jumps to a kind", func(t *testing.T) {
		v := newView(t)
		send(v, "3")
		assert.Equal(t, resources.KindFunction, v.Active().Kind())
		send(v, "9")
		assert.Equal(t, resources.KindFunction, v.Active().Kind())
	})
}

func TestMainView_KeysGoToActiveTable(t *testing.T) {
	v := newView(t)
	send(v, "4", "j")

	row, ok := v.Active().Browser().SelectedRow()
	require.True(t, ok)
	assert.Equal(t, "lambda-exec", row.Item.Label())
	assert.Equal(t, 0, v.Tables()[0].Browser().Selected())
}

func TestMainView_ExpandThroughView(t *testing.T) {
	v := newView(t)
	send(v, "l")

	assert.Equal(t, 3, v.Active().Browser().TotalRows())
	assert.Contains(t, v.View(), "a.txt")
}

func TestMainView_Copy(t *testing.T) {
	t.Run("copies the selected id", func(t *testing.T) {
		v := newView(t)
		var copied string
		v.SetClipboard(func(s string) error {
			copied = s
			return nil
		})

		send(v, "y")
		assert.Equal(t, "assets", copied)
		assert.Equal(t, "✓ Copied assets", v.Notification())
		assert.Contains(t, v.View(), "✓ Copied assets")
	})

	t.Run("reports clipboard failure", func(t *testing.T) {
		v := newView(t)
		v.SetClipboard(func(string) error { return errors.New("no display") })

		send(v, "y")
		assert.True(t, strings.HasPrefix(v.Notification(), "✗"))
	})
}

func TestMainView_Notification(t *testing.T) {
	v := newView(t)
	v.Update(tui.StatusMsg{Text: "first"})
	v.Update(tui.StatusMsg{Text: "second", Error: true})

	v.Update(clearNotificationMsg{seq: v.notifySeq - 1})
	assert.Equal(t, "second", v.Notification())

	v.Update(clearNotificationMsg{seq: v.notifySeq})
	assert.Empty(t, v.Notification())
}

func TestMainView_Help(t *testing.T) {
	v := newView(t)
	send(v, "?")
	require.True(t, v.ShowingHelp())
	assert.Contains(t, v.View(), "awsbrowse keys")
	assert.Contains(t, v.View(), "copy id")

	send(v, "j")
	assert.True(t, v.ShowingHelp(), "keys are swallowed by the overlay")

	send(v, "esc")
	assert.False(t, v.ShowingHelp())
}

func TestMainView_Quit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			v := newView(t)
			_, cmd := v.Update(key(k))
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestMainView_FilterOwnsKeys(t *testing.T) {
	v := newView(t)
	v.Update(key("/"))
	require.True(t, v.Active().Filtering())

	_, cmd := v.Update(key("q"))
	if cmd != nil {
		_, isQuit := cmd().(tea.QuitMsg)
		assert.False(t, isQuit)
	}
	assert.Equal(t, "q", v.Active().Browser().Filter())
	assert.Equal(t, resources.KindBucket, v.Active().Kind())
}

func TestMainView_Watch(t *testing.T) {
	v := newView(t)
	ch := make(chan struct{}, 1)
	v.SetWatch(ch)

	ch <- struct{}{}
	msg := v.waitForChange()()
	require.Equal(t, inventoryChangedMsg{}, msg)

	v.Update(msg)
	for _, tbl := range v.Tables() {
		assert.True(t, tbl.Loading(), tbl.Title())
	}
	assert.Equal(t, "inventory changed, reloading", v.Notification())

	close(ch)
	assert.Nil(t, v.waitForChange()())
}

func TestMainView_StatusBar(t *testing.T) {
	v := newView(t)
	v.SetSourceLabel("fixture inventory.yaml")
	view := v.View()
	assert.Contains(t, view, "fixture inventory.yaml")
	assert.Contains(t, view, "page 1/1")
	assert.Contains(t, view, "sort name asc")
}

func TestMainView_EmptyWithoutSize(t *testing.T) {
	inv, err := fixture.Parse([]byte(viewInventory))
	require.NoError(t, err)
	v := NewMainView(context.Background(), fixture.New(inv), components.TableOptions{})
	defer v.Close()
	assert.Empty(t, v.View())
	assert.Equal(t, "awsbrowse", v.Title())
}
