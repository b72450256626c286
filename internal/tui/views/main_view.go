package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
	"github.com/artpar/awsbrowse/internal/tui"
	"github.com/artpar/awsbrowse/internal/tui/components"
	"github.com/artpar/awsbrowse/internal/tui/keys"
)

// defaultNotifyFor is how long a status notification stays up.
const defaultNotifyFor = 3 * time.Second

// clearNotificationMsg is sent to clear the notification.
type clearNotificationMsg struct {
	seq int
}

// inventoryChangedMsg is sent when the watched inventory was reloaded.
type inventoryChangedMsg struct{}

// MainView is the tabbed view with one resource table per listing kind.
type MainView struct {
	width  int
	height int

	tables    *tui.ComponentList
	keys      *keys.KeyMap
	styles    tui.Styles
	showHelp  bool
	source    string
	watch     <-chan struct{}
	clipboard func(string) error

	notification string
	notifyError  bool
	notifySeq    int
	notifyFor    time.Duration
}

// NewMainView creates the view. Every table shares src and the view's key
// map.
func NewMainView(ctx context.Context, src source.Source, opts components.TableOptions) *MainView {
	km := opts.KeyMap
	if km == nil {
		km = keys.DefaultKeyMap()
		opts.KeyMap = km
	}

	v := &MainView{
		tables:    tui.NewComponentList(),
		keys:      km,
		styles:    tui.DefaultStyles(),
		clipboard: clipboard.WriteAll,
		notifyFor: defaultNotifyFor,
	}
	for _, desc := range resources.Descriptors() {
		v.tables.Add(components.NewResourceTable(ctx, desc, src, opts))
	}
	v.tables.FocusFirst()
	return v
}

// SetSourceLabel sets the source description shown in the status bar.
func (v *MainView) SetSourceLabel(label string) {
	v.source = label
}

// SetWatch makes the view refresh every table when ch fires.
func (v *MainView) SetWatch(ch <-chan struct{}) {
	v.watch = ch
}

// SetClipboard replaces the clipboard writer.
func (v *MainView) SetClipboard(fn func(string) error) {
	v.clipboard = fn
}

// Init lists every kind.
func (v *MainView) Init() tea.Cmd {
	cmds := []tea.Cmd{v.waitForChange()}
	for _, tbl := range v.Tables() {
		cmds = append(cmds, tbl.Init())
	}
	return tea.Batch(cmds...)
}

// Close cancels every running lookup.
func (v *MainView) Close() {
	for _, tbl := range v.Tables() {
		tbl.Close()
	}
}

func (v *MainView) waitForChange() tea.Cmd {
	ch := v.watch
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return inventoryChangedMsg{}
	}
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	if v.showHelp {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.Type == tea.KeyEsc || keyMsg.String() == "?" {
				v.showHelp = false
			}
			return v, nil
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case components.CopyMsg:
		return v.handleCopy(msg.Content)

	case tui.StatusMsg:
		return v, v.notify(msg.Text, msg.Error)

	case clearNotificationMsg:
		if msg.seq == v.notifySeq {
			v.notification = ""
			v.notifyError = false
		}
		return v, nil

	case inventoryChangedMsg:
		cmds := []tea.Cmd{v.waitForChange(), v.notify("inventory changed, reloading", false)}
		for _, tbl := range v.Tables() {
			cmds = append(cmds, tbl.Refresh())
		}
		return v, tea.Batch(cmds...)
	}

	// Listing results, lookups and spinner ticks carry their own routing.
	var cmds []tea.Cmd
	for _, c := range v.tables.All() {
		_, cmd := c.Update(msg)
		cmds = append(cmds, cmd)
	}
	return v, tea.Batch(cmds...)
}

func (v *MainView) handleCopy(content string) (tui.Component, tea.Cmd) {
	if err := v.clipboard(content); err != nil {
		return v, v.notify("✗ Copy failed: "+err.Error(), true)
	}
	return v, v.notify("✓ Copied "+content, false)
}

func (v *MainView) notify(text string, isErr bool) tea.Cmd {
	v.notifySeq++
	v.notification = text
	v.notifyError = isErr
	seq := v.notifySeq
	return tea.Tick(v.notifyFor, func(time.Time) tea.Msg {
		return clearNotificationMsg{seq: seq}
	})
}

func (v *MainView) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return v, tea.Quit
	}

	tbl := v.Active()
	if tbl == nil {
		return v, nil
	}

	// While the filter is open every key belongs to it.
	if tbl.Filtering() {
		_, cmd := tbl.Update(msg)
		return v, cmd
	}

	switch s := msg.String(); s {
	case "?":
		v.keys.Reset()
		v.showHelp = true
		return v, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		v.keys.Reset()
		v.tables.SetFocusIndex(int(s[0] - '1'))
		return v, nil
	}

	action, _ := v.keys.Resolve(msg)
	switch action {
	case keys.ActionQuit:
		return v, tea.Quit
	case keys.ActionNextTab:
		v.tables.FocusNext()
		return v, nil
	case keys.ActionPrevTab:
		v.tables.FocusPrev()
		return v, nil
	}
	return v, tbl.Handle(action)
}

// View renders the component.
func (v *MainView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}
	if v.showHelp {
		return v.renderHelp()
	}

	var body string
	if tbl := v.Active(); tbl != nil {
		body = tbl.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.renderTabs(), body, v.renderStatusBar())
}

func (v *MainView) renderTabs() string {
	var tabs []string
	for i, tbl := range v.Tables() {
		label := fmt.Sprintf("%d %s", i+1, tbl.Title())
		if tbl.Loading() {
			label += " …"
		} else {
			label += fmt.Sprintf(" (%d)", len(tbl.Browser().Items()))
		}
		if i == v.tables.FocusIndex() {
			tabs = append(tabs, v.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, v.styles.Tab.Render(label))
		}
	}
	return lipgloss.NewStyle().Width(v.width).Render(strings.Join(tabs, " "))
}

func (v *MainView) renderStatusBar() string {
	var items []string
	if v.source != "" {
		items = append(items, v.source)
	}
	if tbl := v.Active(); tbl != nil {
		items = append(items, tbl.Summary())
	}
	left := " " + strings.Join(items, " │ ")

	right := v.styles.Muted.Render(v.keys.ShortHelp()+" • ? help") + " "
	if v.notification != "" {
		style := v.styles.StatusBar.Bold(true)
		if v.notifyError {
			style = v.styles.StatusError
		}
		right = style.Render(" "+v.notification+" ") + " "
	}

	spacer := max(0, v.width-lipgloss.Width(left)-lipgloss.Width(right))
	line := left + strings.Repeat(" ", spacer) + right
	return v.styles.StatusBar.Width(v.width).MaxWidth(v.width).Render(line)
}

func (v *MainView) renderHelp() string {
	var lines []string
	lines = append(lines, v.styles.Header.Render("awsbrowse keys"), "")
	for _, b := range v.keys.Bindings() {
		lines = append(lines, fmt.Sprintf("  %-20s %s", strings.Join(b.Keys(), " / "), b.Help()))
	}
	lines = append(lines,
		fmt.Sprintf("  %-20s %s", "gg", "go to top"),
		fmt.Sprintf("  %-20s %s", "1-9", "jump to kind"),
		"",
		v.styles.Muted.Render("  press ? or esc to close"),
	)

	box := tui.RenderBorder(strings.Join(lines, "\n"), true)
	return lipgloss.NewStyle().
		Width(v.width).
		Height(v.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}

// Title returns the view title.
func (v *MainView) Title() string {
	return "awsbrowse"
}

// Focused returns true (main view is always focused).
func (v *MainView) Focused() bool {
	return true
}

// Focus is a no-op for main view.
func (v *MainView) Focus() {}

// Blur is a no-op for main view.
func (v *MainView) Blur() {}

// SetSize sets the view dimensions. The tab line and status bar take one
// line each.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	for _, c := range v.tables.All() {
		c.SetSize(width, max(1, height-2))
	}
}

// Width returns the view width.
func (v *MainView) Width() int {
	return v.width
}

// Height returns the view height.
func (v *MainView) Height() int {
	return v.height
}

// Tables returns the tables in tab order.
func (v *MainView) Tables() []*components.ResourceTable {
	all := v.tables.All()
	out := make([]*components.ResourceTable, 0, len(all))
	for _, c := range all {
		out = append(out, c.(*components.ResourceTable))
	}
	return out
}

// Active returns the focused table.
func (v *MainView) Active() *components.ResourceTable {
	tbl, _ := v.tables.Focused().(*components.ResourceTable)
	return tbl
}

// ShowingHelp returns true if the help overlay is shown.
func (v *MainView) ShowingHelp() bool {
	return v.showHelp
}

// Notification returns the current notification message.
func (v *MainView) Notification() string {
	return v.notification
}
