// Package keys maps key presses to table actions, including multi-key
// sequences such as "gg".
package keys

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is something a key press asks a table or view to do.
type Action int

const (
	ActionNone Action = iota
	ActionDown
	ActionUp
	ActionHalfPageDown
	ActionHalfPageUp
	ActionPageDown
	ActionPageUp
	ActionTop
	ActionBottom
	ActionExpand
	ActionCollapse
	ActionToggle
	ActionFilter
	ActionClearFilter
	ActionSort
	ActionReverseSort
	ActionYank
	ActionRefresh
	ActionNextTab
	ActionPrevTab
	ActionQuit
)

var actionNames = map[Action]string{
	ActionNone:         "none",
	ActionDown:         "down",
	ActionUp:           "up",
	ActionHalfPageDown: "half-page-down",
	ActionHalfPageUp:   "half-page-up",
	ActionPageDown:     "page-down",
	ActionPageUp:       "page-up",
	ActionTop:          "top",
	ActionBottom:       "bottom",
	ActionExpand:       "expand",
	ActionCollapse:     "collapse",
	ActionToggle:       "toggle",
	ActionFilter:       "filter",
	ActionClearFilter:  "clear-filter",
	ActionSort:         "sort",
	ActionReverseSort:  "reverse-sort",
	ActionYank:         "yank",
	ActionRefresh:      "refresh",
	ActionNextTab:      "next-tab",
	ActionPrevTab:      "prev-tab",
	ActionQuit:         "quit",
}

// String returns the action name.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Binding ties one or more keys to an action.
type Binding struct {
	binding key.Binding
	action  Action
}

// newBinding accepts "space" for the space bar.
func newBinding(action Action, help string, keys ...string) Binding {
	raw := make([]string, len(keys))
	for i, k := range keys {
		if k == "space" {
			k = " "
		}
		raw[i] = k
	}
	return Binding{
		binding: key.NewBinding(key.WithKeys(raw...), key.WithHelp(keys[0], help)),
		action:  action,
	}
}

// Keys returns the bound keys as they are written in help.
func (b Binding) Keys() []string {
	keys := append([]string(nil), b.binding.Keys()...)
	for i, k := range keys {
		if k == " " {
			keys[i] = "space"
		}
	}
	return keys
}

// Action returns the bound action.
func (b Binding) Action() Action {
	return b.action
}

// Help returns the description.
func (b Binding) Help() string {
	return b.binding.Help().Desc
}

// Matches returns true if the key message matches this binding. Rune keys
// are case-sensitive so that "g" and "G" stay distinct.
func (b Binding) Matches(msg tea.KeyMsg) bool {
	return key.Matches(msg, b.binding)
}

// KeyMap resolves key presses, buffering the prefix of a sequence until it
// completes or breaks.
type KeyMap struct {
	bindings  []Binding
	sequences map[string]Action
	buffer    string
}

// NewKeyMap creates a new empty key map.
func NewKeyMap() *KeyMap {
	return &KeyMap{
		sequences: make(map[string]Action),
	}
}

// Bind adds a binding.
func (km *KeyMap) Bind(action Action, help string, keys ...string) {
	km.bindings = append(km.bindings, newBinding(action, help, keys...))
}

// BindSequence adds a multi-key sequence made of single-rune keys.
func (km *KeyMap) BindSequence(seq string, action Action) {
	km.sequences[seq] = action
}

// Bindings returns every single-key binding in registration order.
func (km *KeyMap) Bindings() []Binding {
	return km.bindings
}

// Pending returns the buffered sequence prefix.
func (km *KeyMap) Pending() string {
	return km.buffer
}

// Reset clears the sequence buffer.
func (km *KeyMap) Reset() {
	km.buffer = ""
}

// Resolve returns the action for msg. pending is true when msg extended a
// sequence that is not complete yet. A key that breaks a sequence is
// resolved on its own.
func (km *KeyMap) Resolve(msg tea.KeyMsg) (action Action, pending bool) {
	key := msg.String()
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		candidate := km.buffer + key
		if a, ok := km.sequences[candidate]; ok && !km.hasLonger(candidate) {
			km.buffer = ""
			return a, false
		}
		if km.hasLonger(candidate) {
			km.buffer = candidate
			return ActionNone, true
		}
	}
	km.buffer = ""

	for _, b := range km.bindings {
		if b.Matches(msg) {
			return b.action, false
		}
	}
	return ActionNone, false
}

func (km *KeyMap) hasLonger(prefix string) bool {
	for seq := range km.sequences {
		if len(seq) > len(prefix) && strings.HasPrefix(seq, prefix) {
			return true
		}
	}
	return false
}

// DefaultKeyMap returns the vim-like table bindings.
func DefaultKeyMap() *KeyMap {
	km := NewKeyMap()

	km.Bind(ActionDown, "move down", "j", "down")
	km.Bind(ActionUp, "move up", "k", "up")
	km.Bind(ActionHalfPageDown, "half page down", "ctrl+d")
	km.Bind(ActionHalfPageUp, "half page up", "ctrl+u")
	km.Bind(ActionPageDown, "page down", "pgdown", "ctrl+f")
	km.Bind(ActionPageUp, "page up", "pgup", "ctrl+b")
	km.Bind(ActionBottom, "go to bottom", "G", "end")
	km.Bind(ActionTop, "go to top", "home")
	km.BindSequence("gg", ActionTop)

	km.Bind(ActionExpand, "expand", "l", "right")
	km.Bind(ActionCollapse, "collapse", "h", "left")
	km.Bind(ActionToggle, "toggle", "enter", "space")

	km.Bind(ActionFilter, "filter", "/")
	km.Bind(ActionClearFilter, "clear filter", "esc")
	km.Bind(ActionSort, "next sort column", "s")
	km.Bind(ActionReverseSort, "reverse sort", "S")
	km.Bind(ActionYank, "copy id", "y")
	km.Bind(ActionRefresh, "refresh", "r", "ctrl+r")

	km.Bind(ActionNextTab, "next kind", "tab")
	km.Bind(ActionPrevTab, "previous kind", "shift+tab")
	km.Bind(ActionQuit, "quit", "q", "ctrl+c")

	return km
}

// ShortHelp renders the most useful bindings as one line.
func (km *KeyMap) ShortHelp() string {
	show := map[Action]bool{
		ActionToggle: true, ActionFilter: true, ActionSort: true,
		ActionYank: true, ActionNextTab: true, ActionQuit: true,
	}
	var parts []string
	for _, b := range km.bindings {
		if show[b.action] {
			h := b.binding.Help()
			parts = append(parts, h.Key+" "+h.Desc)
		}
	}
	return strings.Join(parts, " • ")
}
