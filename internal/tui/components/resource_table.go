package components

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/mattn/go-runewidth"

	"github.com/artpar/awsbrowse/internal/browser"
	"github.com/artpar/awsbrowse/internal/fetch"
	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
	"github.com/artpar/awsbrowse/internal/tui"
	"github.com/artpar/awsbrowse/internal/tui/keys"
)

type (
	resourceBrowser = browser.Browser[resources.Resource, string]
	resourceRow     = browser.Row[resources.Resource, string]

	// ChildMsg is a finished child lookup for one table.
	ChildMsg = fetch.ResultMsg[string, resources.Resource]
)

// ListedMsg carries a top-level listing back to its table.
type ListedMsg struct {
	Kind  resources.Kind
	Seq   int
	Items []resources.Resource
	Err   error
}

// CopyMsg asks the view to put Content on the clipboard.
type CopyMsg struct {
	Content string
}

// TableOptions configures a ResourceTable.
type TableOptions struct {
	PageSize     int
	WrapWidth    int
	Concurrency  int
	FetchTimeout time.Duration
	KeyMap       *keys.KeyMap
	Logger       logr.Logger
}

// chrome is the border, filter bar and header.
const chrome = 4

// ResourceTable shows one listing kind as an expandable tree table.
type ResourceTable struct {
	*tui.BaseComponent

	ctx        context.Context
	desc       resources.Descriptor
	src        source.Source
	browser    *resourceBrowser
	dispatcher *fetch.Dispatcher[string, resources.Resource]
	keys       *keys.KeyMap
	styles     tui.Styles
	log        logr.Logger

	spinner  spinner.Model
	spinning bool

	filter    textinput.Model
	filtering bool

	seq     int
	loading bool
	listErr error
}

// NewResourceTable creates a table for the descriptor's kind. Lookups run
// under ctx until Close.
func NewResourceTable(ctx context.Context, desc resources.Descriptor, src source.Source, opts TableOptions) *ResourceTable {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	log = log.WithName(string(desc.Kind))

	km := opts.KeyMap
	if km == nil {
		km = keys.DefaultKeyMap()
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	b := browser.New[resources.Resource, string](resources.NewCapability(desc),
		browser.WithPageSize(pageSize),
		browser.WithWrapWidth(opts.WrapWidth),
		browser.WithLogger(log),
	)
	b.SetSort(desc.DefaultSort, browser.SortAsc)

	styles := tui.DefaultStyles()
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.Pending))

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter..."

	return &ResourceTable{
		BaseComponent: tui.NewBaseComponent(desc.Title),
		ctx:           ctx,
		desc:          desc,
		src:           src,
		browser:       b,
		dispatcher: fetch.NewDispatcher(ctx, string(desc.Kind), source.ChildrenFunc(src, desc.Kind),
			fetch.WithConcurrency(opts.Concurrency),
			fetch.WithTimeout(opts.FetchTimeout),
			fetch.WithLogger(log),
		),
		keys:    km,
		styles:  styles,
		log:     log,
		spinner: sp,
		filter:  ti,
	}
}

// Kind returns the listing kind.
func (t *ResourceTable) Kind() resources.Kind {
	return t.desc.Kind
}

// Browser returns the underlying browser.
func (t *ResourceTable) Browser() *resourceBrowser {
	return t.browser
}

// Loading reports whether a listing is in flight.
func (t *ResourceTable) Loading() bool {
	return t.loading
}

// Filtering reports whether the filter input has the keyboard.
func (t *ResourceTable) Filtering() bool {
	return t.filtering
}

// ListErr returns the error of the last listing, if it failed.
func (t *ResourceTable) ListErr() error {
	return t.listErr
}

// Close cancels every running lookup.
func (t *ResourceTable) Close() {
	t.dispatcher.Close()
}

// Init starts the first listing.
func (t *ResourceTable) Init() tea.Cmd {
	return t.Refresh()
}

// Refresh lists the kind again. Expanded nodes and fetched children whose
// keys survive are kept.
func (t *ResourceTable) Refresh() tea.Cmd {
	t.seq++
	t.loading = true
	seq, kind, ctx, src := t.seq, t.desc.Kind, t.ctx, t.src
	list := func() tea.Msg {
		items, err := src.List(ctx, kind)
		return ListedMsg{Kind: kind, Seq: seq, Items: items, Err: err}
	}
	return tea.Batch(list, t.spin())
}

// SetSize sets dimensions and the number of visible rows.
func (t *ResourceTable) SetSize(width, height int) {
	t.BaseComponent.SetSize(width, height)
	t.browser.SetVisibleRows(max(1, height-chrome))
	t.filter.Width = max(1, width-6)
}

// Update handles messages.
func (t *ResourceTable) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.SetSize(msg.Width, msg.Height)

	case tui.FocusMsg:
		t.Focus()

	case tui.BlurMsg:
		t.Blur()

	case ListedMsg:
		if msg.Kind != t.desc.Kind {
			return t, nil
		}
		return t, t.handleListed(msg)

	case ChildMsg:
		if msg.Scope != t.dispatcher.Scope() {
			return t, nil
		}
		t.dispatcher.Apply(t.browser, msg)
		return t, t.spin()

	case spinner.TickMsg:
		if msg.ID != t.spinner.ID() {
			return t, nil
		}
		if !t.busy() {
			t.spinning = false
			return t, nil
		}
		var cmd tea.Cmd
		t.spinner, cmd = t.spinner.Update(msg)
		return t, cmd

	case tea.KeyMsg:
		if !t.Focused() {
			return t, nil
		}
		if t.filtering {
			return t, t.handleFilterKey(msg)
		}
		action, _ := t.keys.Resolve(msg)
		return t, t.handleAction(action)
	}
	return t, nil
}

func (t *ResourceTable) handleListed(msg ListedMsg) tea.Cmd {
	if msg.Seq != t.seq {
		t.log.V(1).Info("dropping stale listing", "seq", msg.Seq)
		return nil
	}
	t.loading = false
	if msg.Err != nil {
		t.listErr = msg.Err
		t.log.Error(msg.Err, "listing failed")
		return statusCmd(fmt.Sprintf("failed to list %s: %v", strings.ToLower(t.desc.Title), msg.Err), true)
	}
	t.listErr = nil
	t.browser.SetItems(msg.Items)
	return t.dispatch()
}

func (t *ResourceTable) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		t.filtering = false
		t.filter.Blur()
		return nil
	case tea.KeyEsc:
		t.filtering = false
		t.filter.Blur()
		t.filter.SetValue("")
		t.browser.SetFilter("")
		return nil
	}
	var cmd tea.Cmd
	t.filter, cmd = t.filter.Update(msg)
	t.browser.SetFilter(t.filter.Value())
	return cmd
}

// Handle runs one action against the table. It returns nil for actions the
// table does not own.
func (t *ResourceTable) Handle(action keys.Action) tea.Cmd {
	return t.handleAction(action)
}

func (t *ResourceTable) handleAction(action keys.Action) tea.Cmd {
	b := t.browser
	switch action {
	case keys.ActionDown:
		b.NextItem()
	case keys.ActionUp:
		b.PrevItem()
	case keys.ActionHalfPageDown:
		b.HalfPageDown()
	case keys.ActionHalfPageUp:
		b.HalfPageUp()
	case keys.ActionPageDown:
		b.PageDown()
	case keys.ActionPageUp:
		b.PageUp()
	case keys.ActionTop:
		b.JumpToTop()
	case keys.ActionBottom:
		b.JumpToBottom()
	case keys.ActionExpand:
		return t.expandSelected()
	case keys.ActionCollapse:
		t.collapseSelected()
	case keys.ActionToggle:
		return t.toggleSelected()
	case keys.ActionFilter:
		t.filtering = true
		t.filter.SetValue(b.Filter())
		t.filter.CursorEnd()
		return t.filter.Focus()
	case keys.ActionClearFilter:
		if b.Filter() != "" {
			t.filter.SetValue("")
			b.SetFilter("")
		}
	case keys.ActionSort:
		key, _ := b.Sort()
		b.SetSort(t.desc.NextSortKey(key), browser.SortAsc)
	case keys.ActionReverseSort:
		key, dir := b.Sort()
		if dir == browser.SortAsc {
			b.SetSort(key, browser.SortDesc)
		} else {
			b.SetSort(key, browser.SortAsc)
		}
	case keys.ActionYank:
		if row, ok := b.SelectedRow(); ok {
			content := row.Item.ID
			return func() tea.Msg { return CopyMsg{Content: content} }
		}
	case keys.ActionRefresh:
		return t.Refresh()
	}
	return nil
}

func (t *ResourceTable) expandSelected() tea.Cmd {
	row, ok := t.browser.SelectedRow()
	if !ok || !row.Expandable {
		return nil
	}
	if row.Expanded && row.State != browser.StateFailed {
		return nil
	}
	if !t.browser.Expand(row.Key) {
		return nil
	}
	return t.dispatch()
}

// collapseSelected collapses the row under the cursor or, on a row that is
// not expanded, its parent.
func (t *ResourceTable) collapseSelected() {
	row, ok := t.browser.SelectedRow()
	if !ok {
		return
	}
	key := row.Key
	if !row.Expanded {
		parent, idx, found := t.parentOf(t.browser.Selected())
		if !found {
			return
		}
		key = parent
		t.browser.SetSelected(idx)
	}
	t.dispatcher.Cancel(t.browser.Collapse(key)...)
}

func (t *ResourceTable) toggleSelected() tea.Cmd {
	_, expanded, evicted, ok := t.browser.ToggleSelected()
	if !ok {
		return nil
	}
	if !expanded {
		t.dispatcher.Cancel(evicted...)
		return nil
	}
	return t.dispatch()
}

// parentOf returns the key and selectable index of the parent of the
// selectable row sel.
func (t *ResourceTable) parentOf(sel int) (string, int, bool) {
	type seen struct {
		key string
		idx int
	}
	var (
		ancestors []seen
		n         = -1
	)
	for _, row := range t.browser.Rows() {
		if !row.Selectable {
			continue
		}
		n++
		ancestors = append(ancestors[:row.Depth], seen{key: row.Key, idx: n})
		if n == sel {
			if row.Depth == 0 {
				return "", 0, false
			}
			p := ancestors[row.Depth-1]
			return p.key, p.idx, true
		}
	}
	return "", 0, false
}

func (t *ResourceTable) dispatch() tea.Cmd {
	fetches := t.dispatcher.Dispatch(t.browser)
	if fetches == nil {
		return nil
	}
	return tea.Batch(fetches, t.spin())
}

func (t *ResourceTable) busy() bool {
	return t.loading || t.dispatcher.InFlight() > 0
}

// spin starts the spinner if something is in flight and it is not already
// ticking.
func (t *ResourceTable) spin() tea.Cmd {
	if t.spinning || !t.busy() {
		return nil
	}
	t.spinning = true
	return t.spinner.Tick
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return tui.StatusMsg{Text: text, Error: isErr} }
}

// View renders the component.
func (t *ResourceTable) View() string {
	if t.Width() == 0 || t.Height() == 0 {
		return ""
	}
	innerWidth := max(1, t.Width()-2)
	bodyHeight := max(1, t.Height()-chrome)

	lines := []string{
		t.renderFilterBar(innerWidth),
		t.styles.Header.Render(tui.PadRight(t.renderHeader(innerWidth), innerWidth)),
	}
	lines = append(lines, t.renderBody(innerWidth, bodyHeight)...)
	return tui.RenderBorder(strings.Join(lines, "\n"), t.Focused())
}

func (t *ResourceTable) renderFilterBar(width int) string {
	if t.filtering {
		return t.filter.View()
	}
	if f := t.browser.Filter(); f != "" {
		return t.styles.Filter.Render(tui.PadRight("/ "+f, width))
	}
	return t.styles.Muted.Render(tui.PadRight("/ filter...", width))
}

// columnWidths returns the cell width of each column. The first column
// takes whatever the others leave.
func (t *ResourceTable) columnWidths(width int) []int {
	cols := t.desc.Columns
	widths := make([]int, len(cols))
	rest := 0
	for i := 1; i < len(cols); i++ {
		widths[i] = cols[i].Width
		rest += cols[i].Width + 1
	}
	widths[0] = max(cols[0].Width/2, width-1-rest)
	return widths
}

func (t *ResourceTable) renderHeader(width int) string {
	sortKey, dir := t.browser.Sort()
	widths := t.columnWidths(width)
	cells := make([]string, len(t.desc.Columns))
	for i, col := range t.desc.Columns {
		title := col.Title
		if col.ID == sortKey {
			if dir == browser.SortDesc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cells[i] = tui.PadRight(title, widths[i])
	}
	return " " + strings.Join(cells, " ")
}

func (t *ResourceTable) renderBody(width, height int) []string {
	var lines []string
	switch {
	case t.listErr != nil && t.browser.TotalRows() == 0:
		lines = append(lines, t.styles.ErrorRow.Render(tui.PadRight(" failed to list: "+t.listErr.Error(), width)))
	case t.loading && len(t.browser.Items()) == 0:
		lines = append(lines, t.styles.Pending.Render(tui.PadRight(" "+t.spinner.View()+" loading "+strings.ToLower(t.desc.Title)+"...", width)))
	case t.browser.TotalRows() == 0 && t.browser.Filter() != "":
		lines = append(lines, t.styles.Muted.Render(tui.PadRight(" no matches", width)))
	case t.browser.TotalRows() == 0:
		lines = append(lines, t.styles.Muted.Render(tui.PadRight(" no "+strings.ToLower(t.desc.Title), width)))
	default:
		win := t.browser.VisibleWindow()
		rows, cursor := fitWindow(win.Rows, win.Cursor, height)
		for i, row := range rows {
			lines = append(lines, t.renderRow(row, i == cursor, width))
		}
	}

	empty := strings.Repeat(" ", width)
	for len(lines) < height {
		lines = append(lines, empty)
	}
	return lines
}

// fitWindow trims rows to height, keeping the cursor row in view. Error
// placeholders can make a window taller than the visible row count.
func fitWindow(rows []resourceRow, cursor, height int) ([]resourceRow, int) {
	if len(rows) <= height {
		return rows, cursor
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	return rows[start : start+height], cursor - start
}

// TreePrefix draws the tree connectors in front of a row.
func TreePrefix(row resourceRow) string {
	if row.Depth == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 1; i < row.Depth; i++ {
		if row.IsLast[i] {
			sb.WriteString("   ")
		} else {
			sb.WriteString("│  ")
		}
	}
	switch {
	case row.Kind == browser.RowError:
		sb.WriteString("   ")
	case row.IsLast[row.Depth]:
		sb.WriteString("└─ ")
	default:
		sb.WriteString("├─ ")
	}
	return sb.String()
}

func (t *ResourceTable) marker(row resourceRow) string {
	if !row.Expandable {
		return "  "
	}
	switch {
	case row.State == browser.StatePending:
		return t.spinner.View() + " "
	case row.Expanded:
		return "▾ "
	default:
		return "▸ "
	}
}

func (t *ResourceTable) renderRow(row resourceRow, selected bool, width int) string {
	widths := t.columnWidths(width)
	tree := TreePrefix(row)
	treeWidth := runewidth.StringWidth(tree)

	if row.Kind == browser.RowError {
		msg := tui.PadRight("! "+row.Message, max(0, width-1-treeWidth))
		return " " + t.styles.Connector.Render(tree) + t.styles.ErrorRow.Render(msg)
	}

	cells := make([]string, len(t.desc.Columns))
	for i, col := range t.desc.Columns {
		if i == 0 {
			cells[i] = tui.PadRight(t.marker(row)+col.Value(row.Item), max(0, widths[0]-treeWidth))
			continue
		}
		cells[i] = tui.PadRight(col.Value(row.Item), widths[i])
	}
	rest := tui.PadRight(strings.Join(cells, " "), max(0, width-1-treeWidth))

	switch {
	case selected && t.Focused():
		return t.styles.Selected.Render(" " + tree + rest)
	case selected:
		return t.styles.SelectedDim.Render(" " + tree + rest)
	default:
		return " " + t.styles.Connector.Render(tree) + rest
	}
}

// Summary describes the table state for the status bar.
func (t *ResourceTable) Summary() string {
	b := t.browser
	parts := []string{
		fmt.Sprintf("page %d/%d", b.PageIndex()+1, max(1, b.TotalPages())),
		fmt.Sprintf("%d/%d %s", len(b.TopLevel()), len(b.Items()), strings.ToLower(t.desc.Title)),
	}
	if key, dir := b.Sort(); key != "" {
		parts = append(parts, "sort "+key+" "+dir.String())
	}
	if f := b.Filter(); f != "" {
		parts = append(parts, fmt.Sprintf("filter %q", f))
	}
	if n := t.dispatcher.InFlight(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d loading", n))
	}
	if p := t.keys.Pending(); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " • ")
}
