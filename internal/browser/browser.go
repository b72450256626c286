package browser

import (
	"github.com/go-logr/logr"
)

// Option configures a Browser.
type Option func(*settings)

type settings struct {
	visibleRows int
	pageSize    int
	wrapWidth   int
	log         logr.Logger
}

// WithVisibleRows sets the initial window height.
func WithVisibleRows(n int) Option {
	return func(s *settings) { s.visibleRows = n }
}

// WithPageSize sets the pagination page size.
func WithPageSize(n int) Option {
	return func(s *settings) { s.pageSize = n }
}

// WithWrapWidth sets the width error placeholders are wrapped to.
func WithWrapWidth(n int) Option {
	return func(s *settings) { s.wrapWidth = n }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *settings) { s.log = log }
}

// Window is everything needed to draw one frame.
type Window[T any, K comparable] struct {
	Rows         []Row[T, K]
	ScrollOffset int
	TotalRows    int
	Selected     int
	// Cursor is the index into Rows of the selected row, or -1.
	Cursor int
}

// Browser ties the item store, expansion set, child cache and viewport
// together. It is not safe for concurrent use: fetch results must be handed
// to Record on the goroutine that owns the Browser.
type Browser[T any, K comparable] struct {
	cap       Capability[T, K]
	store     Store[T]
	expanded  ExpansionSet[K]
	cache     ChildCache[K, T]
	viewport  Viewport
	wrapWidth int
	log       logr.Logger
}

// New creates an empty Browser for items described by c.
func New[T any, K comparable](c Capability[T, K], opts ...Option) *Browser[T, K] {
	s := settings{visibleRows: 20, pageSize: 50, log: logr.Discard()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Browser[T, K]{
		cap:       c,
		viewport:  NewViewport(s.visibleRows, s.pageSize),
		wrapWidth: s.wrapWidth,
		log:       s.log,
	}
}

// Capability returns the item capability.
func (b *Browser[T, K]) Capability() Capability[T, K] {
	return b.cap
}

// SetItems replaces the top-level listing. Expansion state and fetched
// children survive as long as their keys do.
func (b *Browser[T, K]) SetItems(items []T) {
	b.store.SetItems(items)
	b.viewport.Clamp(b.TotalRows())
}

// Items returns the top-level items in storage order.
func (b *Browser[T, K]) Items() []T {
	return b.store.Items()
}

// Filter returns the active filter.
func (b *Browser[T, K]) Filter() string {
	return b.store.Filter()
}

// SetFilter changes the filter and clamps the selection.
func (b *Browser[T, K]) SetFilter(filter string) {
	b.store.SetFilter(filter)
	b.viewport.Clamp(b.TotalRows())
}

// Sort returns the active sort.
func (b *Browser[T, K]) Sort() (string, SortDirection) {
	return b.store.Sort()
}

// SetSort changes the sort and clamps the selection.
func (b *Browser[T, K]) SetSort(key string, dir SortDirection) {
	b.store.SetSort(key, dir)
	b.viewport.Clamp(b.TotalRows())
}

// ToggleSort sorts by key ascending, or flips the direction if key is
// already the sort key.
func (b *Browser[T, K]) ToggleSort(key string) {
	cur, dir := b.store.Sort()
	if cur == key && dir == SortAsc {
		b.SetSort(key, SortDesc)
		return
	}
	b.SetSort(key, SortAsc)
}

// TopLevel returns the filtered and sorted top-level items.
func (b *Browser[T, K]) TopLevel() []T {
	return b.store.View(b.cap.MatchesFilter, b.cap.Compare)
}

// Rows flattens the current state.
func (b *Browser[T, K]) Rows() []Row[T, K] {
	return Flatten(b.TopLevel(), b.cap, &b.expanded, &b.cache, b.wrapWidth)
}

// TotalRows returns the number of selectable rows.
func (b *Browser[T, K]) TotalRows() int {
	return CountRows(b.TopLevel(), b.cap, &b.expanded, &b.cache)
}

// Selected returns the selected selectable-row index.
func (b *Browser[T, K]) Selected() int { return b.viewport.Selected() }

// Offset returns the scroll offset.
func (b *Browser[T, K]) Offset() int { return b.viewport.Offset() }

// VisibleRows returns the window height.
func (b *Browser[T, K]) VisibleRows() int { return b.viewport.VisibleRows() }

// SetVisibleRows changes the window height.
func (b *Browser[T, K]) SetVisibleRows(n int) {
	b.viewport.SetVisibleRows(n, b.TotalRows())
}

// PageSize returns the pagination page size.
func (b *Browser[T, K]) PageSize() int { return b.viewport.PageSize() }

// SetPageSize changes the pagination page size.
func (b *Browser[T, K]) SetPageSize(n int) { b.viewport.SetPageSize(n) }

// PageIndex returns the page holding the selection.
func (b *Browser[T, K]) PageIndex() int { return b.viewport.PageIndex() }

// TotalPages returns the number of pages.
func (b *Browser[T, K]) TotalPages() int { return b.viewport.TotalPages(b.TotalRows()) }

// SetSelected selects the given row index, clamped.
func (b *Browser[T, K]) SetSelected(i int) { b.viewport.Select(i, b.TotalRows()) }

// NextItem selects the next row.
func (b *Browser[T, K]) NextItem() { b.viewport.Next(b.TotalRows()) }

// PrevItem selects the previous row.
func (b *Browser[T, K]) PrevItem() { b.viewport.Prev(b.TotalRows()) }

// Jump moves the selection by delta rows.
func (b *Browser[T, K]) Jump(delta int) { b.viewport.Jump(delta, b.TotalRows()) }

// PageDown moves down one window.
func (b *Browser[T, K]) PageDown() { b.viewport.PageDown(b.TotalRows()) }

// PageUp moves up one window.
func (b *Browser[T, K]) PageUp() { b.viewport.PageUp(b.TotalRows()) }

// HalfPageDown moves down half a window.
func (b *Browser[T, K]) HalfPageDown() { b.viewport.HalfPageDown(b.TotalRows()) }

// HalfPageUp moves up half a window.
func (b *Browser[T, K]) HalfPageUp() { b.viewport.HalfPageUp(b.TotalRows()) }

// JumpToTop selects the first row.
func (b *Browser[T, K]) JumpToTop() { b.viewport.Top(b.TotalRows()) }

// JumpToBottom selects the last row.
func (b *Browser[T, K]) JumpToBottom() { b.viewport.Bottom(b.TotalRows()) }

// SelectedRow returns the row under the cursor.
func (b *Browser[T, K]) SelectedRow() (Row[T, K], bool) {
	sel := b.viewport.Selected()
	n := -1
	for _, row := range b.Rows() {
		if !row.Selectable {
			continue
		}
		n++
		if n == sel {
			return row, true
		}
	}
	return Row[T, K]{}, false
}

// IsSelectableRowUnderCursor reports whether the cursor rests on a row that
// should be highlighted.
func (b *Browser[T, K]) IsSelectableRowUnderCursor() bool {
	row, ok := b.SelectedRow()
	return ok && row.Selectable
}

// VisibleWindow returns the selectable rows in
// [ScrollOffset, ScrollOffset+VisibleRows) together with the error
// placeholders that follow them.
func (b *Browser[T, K]) VisibleWindow() Window[T, K] {
	rows := b.Rows()
	start := b.viewport.Offset()
	end := start + b.viewport.VisibleRows()
	w := Window[T, K]{
		ScrollOffset: start,
		Selected:     b.viewport.Selected(),
		Cursor:       -1,
	}

	n := -1
	for _, row := range rows {
		if row.Selectable {
			n++
			w.TotalRows++
		}
		if n < start || n >= end {
			continue
		}
		if row.Selectable && n == w.Selected {
			w.Cursor = len(w.Rows)
		}
		w.Rows = append(w.Rows, row)
	}
	return w
}

// IsExpanded reports whether key is expanded.
func (b *Browser[T, K]) IsExpanded(key K) bool {
	return b.expanded.Has(key)
}

// Entry returns the child cache entry for key.
func (b *Browser[T, K]) Entry(key K) Entry[T] {
	return b.cache.Get(key)
}

// ExpandedKeys returns the expanded keys in expansion order.
func (b *Browser[T, K]) ExpandedKeys() []K {
	return b.expanded.Keys()
}

// ToggleExpand expands a collapsed node or collapses an expanded one. It
// returns the new state and, on collapse, every key whose fetch state was
// forgotten.
func (b *Browser[T, K]) ToggleExpand(key K) (expanded bool, evicted []K) {
	if b.expanded.Has(key) {
		return false, b.Collapse(key)
	}
	return b.Expand(key), nil
}

// ToggleSelected toggles the row under the cursor. It reports false if that
// row cannot be expanded.
func (b *Browser[T, K]) ToggleSelected() (key K, expanded bool, evicted []K, ok bool) {
	row, found := b.SelectedRow()
	if !found || !row.Expandable {
		return key, false, nil, false
	}
	expanded, evicted = b.ToggleExpand(row.Key)
	return row.Key, expanded, evicted, true
}

// Expand marks a visible expandable node expanded. Expanding a node whose
// fetch failed clears the failure so it is fetched again.
func (b *Browser[T, K]) Expand(key K) bool {
	if _, _, ok := b.locate(b.Rows(), key); !ok {
		return false
	}
	if b.expanded.Has(key) {
		if b.cache.State(key) == StateFailed {
			b.cache.Evict(key)
			return true
		}
		return false
	}
	b.expanded.Expand(key)
	if b.cache.State(key) == StateFailed {
		b.cache.Evict(key)
	}
	b.viewport.Clamp(b.TotalRows())
	return true
}

// Collapse collapses key and forgets the fetched children of key and of
// every descendant. If the selection was inside the removed rows it moves
// to the collapsed node; if it was below them it follows its row.
func (b *Browser[T, K]) Collapse(key K) []K {
	if !b.expanded.Has(key) {
		return nil
	}

	sel := b.viewport.Selected()
	if parent, size, ok := b.locate(b.Rows(), key); ok {
		switch {
		case sel > parent && sel <= parent+size:
			sel = parent
		case sel > parent+size:
			sel -= size
		}
	}

	evicted := b.forget(key, make(map[K]bool))
	b.expanded.Collapse(key)
	b.viewport.Select(sel, b.TotalRows())
	return evicted
}

// forget evicts key and, transitively, every descendant it knows about.
func (b *Browser[T, K]) forget(key K, seen map[K]bool) []K {
	if seen[key] {
		return nil
	}
	seen[key] = true

	var evicted []K
	entry := b.cache.Get(key)
	for _, child := range entry.Children {
		if !b.cap.IsExpandable(child) {
			continue
		}
		ck := b.cap.KeyOf(child)
		b.expanded.Collapse(ck)
		evicted = append(evicted, b.forget(ck, seen)...)
	}
	if entry.State != StateAbsent {
		b.cache.Evict(key)
		evicted = append(evicted, key)
	}
	return evicted
}

// NeedsFetch returns every expanded key that has no cache entry yet.
func (b *Browser[T, K]) NeedsFetch() []K {
	var keys []K
	for _, key := range b.expanded.Keys() {
		if b.cache.State(key) == StateAbsent {
			keys = append(keys, key)
		}
	}
	return keys
}

// MarkPending records that a fetch identified by ticket is in flight for
// key.
func (b *Browser[T, K]) MarkPending(key K, ticket string) bool {
	if !b.expanded.Has(key) {
		return false
	}
	return b.cache.MarkPending(key, ticket)
}

// Record applies a fetch result. Results for keys that are no longer
// expanded, for a superseded ticket, or for already settled keys are
// dropped. If the node is above the cursor, the cursor follows its row.
func (b *Browser[T, K]) Record(key K, res Result[T]) bool {
	if !b.expanded.Has(key) {
		b.log.V(1).Info("dropping stale fetch result", "key", key)
		return false
	}

	before := b.TotalRows()
	parent, _, visible := b.locate(b.Rows(), key)

	if !b.cache.Record(key, res) {
		b.log.V(1).Info("rejecting fetch result", "key", key, "state", b.cache.State(key).String())
		return false
	}
	if res.Err != nil {
		b.log.Info("fetch failed", "key", key, "error", res.Err.Error())
	}

	after := b.TotalRows()
	sel := b.viewport.Selected()
	if visible && sel > parent {
		sel += after - before
	}
	b.viewport.Select(sel, after)
	return true
}

// ExpandVisible expands every visible expandable row shallower than
// maxDepth and returns the keys that were newly expanded.
func (b *Browser[T, K]) ExpandVisible(maxDepth int) []K {
	var keys []K
	for _, row := range b.Rows() {
		if row.Kind != RowItem || !row.Expandable || row.Expanded || row.Depth >= maxDepth {
			continue
		}
		if b.Expand(row.Key) {
			keys = append(keys, row.Key)
		}
	}
	return keys
}

// locate returns the selectable ordinal of the row for key and the number of
// selectable rows in its visible subtree.
func (b *Browser[T, K]) locate(rows []Row[T, K], key K) (index, size int, ok bool) {
	n := -1
	depth := 0
	for _, row := range rows {
		if row.Selectable {
			n++
		}
		if ok {
			if row.Depth <= depth {
				break
			}
			if row.Selectable {
				size++
			}
			continue
		}
		if row.Kind == RowItem && row.Expandable && row.Key == key {
			index, depth, ok = n, row.Depth, true
		}
	}
	return index, size, ok
}
