package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Component is the interface for all TUI components.
type Component interface {
	// Init initializes the component.
	Init() tea.Cmd

	// Update handles messages and returns the updated component.
	Update(msg tea.Msg) (Component, tea.Cmd)

	// View renders the component.
	View() string

	// Title returns the component title.
	Title() string

	// Focused returns true if the component is focused.
	Focused() bool

	// Focus sets the component as focused.
	Focus()

	// Blur removes focus from the component.
	Blur()

	// SetSize sets the component dimensions.
	SetSize(width, height int)

	// Width returns the component width.
	Width() int

	// Height returns the component height.
	Height() int
}

// Messages

// FocusMsg is sent when a component should gain focus.
type FocusMsg struct{}

// BlurMsg is sent when a component should lose focus.
type BlurMsg struct{}

// StatusMsg asks the view to flash a message in the status bar.
type StatusMsg struct {
	Text  string
	Error bool
}

// BaseComponent provides the title, focus and size bookkeeping shared by
// components.
type BaseComponent struct {
	title   string
	focused bool
	width   int
	height  int
}

// NewBaseComponent creates a new base component.
func NewBaseComponent(title string) *BaseComponent {
	return &BaseComponent{
		title: title,
	}
}

// Title returns the component title.
func (c *BaseComponent) Title() string {
	return c.title
}

// Focused returns true if focused.
func (c *BaseComponent) Focused() bool {
	return c.focused
}

// Focus sets the component as focused.
func (c *BaseComponent) Focus() {
	c.focused = true
}

// Blur removes focus.
func (c *BaseComponent) Blur() {
	c.focused = false
}

// SetSize sets dimensions.
func (c *BaseComponent) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *BaseComponent) Width() int {
	return c.width
}

// Height returns the height.
func (c *BaseComponent) Height() int {
	return c.height
}

// ComponentList manages a list of components with focus cycling.
type ComponentList struct {
	components []Component
	focusIndex int
}

// NewComponentList creates a new component list.
func NewComponentList() *ComponentList {
	return &ComponentList{
		components: make([]Component, 0),
		focusIndex: -1,
	}
}

// Add adds a component to the list.
func (cl *ComponentList) Add(c Component) {
	cl.components = append(cl.components, c)
}

// Len returns the number of components.
func (cl *ComponentList) Len() int {
	return len(cl.components)
}

// Get returns a component by index.
func (cl *ComponentList) Get(index int) Component {
	if index < 0 || index >= len(cl.components) {
		return nil
	}
	return cl.components[index]
}

// All returns every component in order.
func (cl *ComponentList) All() []Component {
	return cl.components
}

// FocusFirst focuses the first component.
func (cl *ComponentList) FocusFirst() {
	if len(cl.components) == 0 {
		return
	}
	cl.setFocus(0)
}

// FocusNext cycles focus to the next component.
func (cl *ComponentList) FocusNext() {
	if len(cl.components) == 0 {
		return
	}
	cl.setFocus((cl.focusIndex + 1) % len(cl.components))
}

// FocusPrev cycles focus to the previous component.
func (cl *ComponentList) FocusPrev() {
	if len(cl.components) == 0 {
		return
	}
	prev := cl.focusIndex - 1
	if prev < 0 {
		prev = len(cl.components) - 1
	}
	cl.setFocus(prev)
}

// FocusIndex returns the current focus index.
func (cl *ComponentList) FocusIndex() int {
	return cl.focusIndex
}

// SetFocusIndex sets focus to a specific index.
func (cl *ComponentList) SetFocusIndex(index int) {
	if index < 0 || index >= len(cl.components) {
		return
	}
	cl.setFocus(index)
}

// Focused returns the currently focused component.
func (cl *ComponentList) Focused() Component {
	if cl.focusIndex < 0 || cl.focusIndex >= len(cl.components) {
		return nil
	}
	return cl.components[cl.focusIndex]
}

func (cl *ComponentList) setFocus(index int) {
	if cl.focusIndex >= 0 && cl.focusIndex < len(cl.components) {
		cl.components[cl.focusIndex].Blur()
	}
	cl.focusIndex = index
	if index >= 0 && index < len(cl.components) {
		cl.components[index].Focus()
	}
}

// Styles

// Styles holds the lipgloss styles used by tables and views.
type Styles struct {
	Header      lipgloss.Style
	Selected    lipgloss.Style
	SelectedDim lipgloss.Style
	Connector   lipgloss.Style
	ErrorRow    lipgloss.Style
	Pending     lipgloss.Style
	Muted       lipgloss.Style
	Filter      lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
	Border      lipgloss.Style
}

// DefaultStyles returns default styling.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("229")),
		SelectedDim: lipgloss.NewStyle().
			Background(lipgloss.Color("238")).
			Foreground(lipgloss.Color("252")),
		Connector: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		ErrorRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")).
			Italic(true),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		Filter: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		Tab: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")),
		ActiveTab: lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62")),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("160")),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()),
	}
}

// RenderBorder renders content with a border.
func RenderBorder(content string, focused bool) string {
	style := DefaultStyles().Border
	if focused {
		style = style.BorderForeground(lipgloss.Color("62"))
	} else {
		style = style.BorderForeground(lipgloss.Color("240"))
	}
	return style.Render(content)
}

// Truncate truncates a string to fit within a number of terminal cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// PadRight truncates or pads a string to exactly width cells.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
