package browser

// This file contains the cursor and scroll arithmetic. The package-level
// functions are pure: they take values and return values. Viewport wraps them
// and is the only place selection and scroll state are mutated.

// MoveCursor computes new cursor position within bounds.
func MoveCursor(cursor, delta, itemCount int) int {
	if itemCount <= 0 {
		return 0
	}
	newCursor := cursor + delta
	if newCursor < 0 {
		return 0
	}
	if newCursor >= itemCount {
		return itemCount - 1
	}
	return newCursor
}

// AdjustOffset returns the scroll offset that keeps cursor inside
// [offset, offset+visibleHeight). The offset only moves by the minimum amount
// needed; a cursor that is already visible never moves the offset, except when
// the offset would leave empty space below the last item.
func AdjustOffset(cursor, offset, visibleHeight, itemCount int) int {
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	if itemCount <= 0 {
		return 0
	}
	if maxOffset := max(itemCount-visibleHeight, 0); offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visibleHeight {
		return cursor - visibleHeight + 1
	}
	return offset
}

// PageIndex returns the zero-based page containing cursor.
func PageIndex(cursor, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor / pageSize
}

// TotalPages returns ceil(itemCount / pageSize).
func TotalPages(itemCount, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if itemCount <= 0 {
		return 0
	}
	return (itemCount + pageSize - 1) / pageSize
}

// Viewport tracks the selected row and scroll offset over a sequence of
// selectable rows whose length is supplied on every call.
type Viewport struct {
	selected    int
	offset      int
	visibleRows int
	pageSize    int
}

// NewViewport creates a viewport showing visibleRows rows at a time and
// paginating by pageSize.
func NewViewport(visibleRows, pageSize int) Viewport {
	return Viewport{visibleRows: visibleRows, pageSize: pageSize}
}

// Selected returns the selected row index.
func (v *Viewport) Selected() int {
	return v.selected
}

// Offset returns the index of the first visible row.
func (v *Viewport) Offset() int {
	return v.offset
}

// VisibleRows returns the window height, never less than 1.
func (v *Viewport) VisibleRows() int {
	if v.visibleRows < 1 {
		return 1
	}
	return v.visibleRows
}

// PageSize returns the pagination page size, never less than 1.
func (v *Viewport) PageSize() int {
	if v.pageSize < 1 {
		return 1
	}
	return v.pageSize
}

// SetVisibleRows changes the window height and re-anchors the offset.
func (v *Viewport) SetVisibleRows(n, total int) {
	v.visibleRows = n
	v.Clamp(total)
}

// SetPageSize changes the pagination page size.
func (v *Viewport) SetPageSize(n int) {
	v.pageSize = n
}

// Next selects the following row.
func (v *Viewport) Next(total int) {
	v.Jump(1, total)
}

// Prev selects the preceding row.
func (v *Viewport) Prev(total int) {
	v.Jump(-1, total)
}

// Jump moves the selection by delta rows, clamped to [0, total).
func (v *Viewport) Jump(delta, total int) {
	v.selected = MoveCursor(v.selected, delta, total)
	v.adjust(total)
}

// PageDown moves the selection down by one window.
func (v *Viewport) PageDown(total int) {
	v.Jump(v.VisibleRows(), total)
}

// PageUp moves the selection up by one window.
func (v *Viewport) PageUp(total int) {
	v.Jump(-v.VisibleRows(), total)
}

// HalfPageDown moves the selection down by half a window (ctrl+d).
func (v *Viewport) HalfPageDown(total int) {
	v.Jump(max(v.VisibleRows()/2, 1), total)
}

// HalfPageUp moves the selection up by half a window (ctrl+u).
func (v *Viewport) HalfPageUp(total int) {
	v.Jump(-max(v.VisibleRows()/2, 1), total)
}

// Top selects the first row.
func (v *Viewport) Top(total int) {
	v.selected = 0
	v.adjust(total)
}

// Bottom selects the last row.
func (v *Viewport) Bottom(total int) {
	v.selected = max(total, 1) - 1
	v.adjust(total)
}

// Select moves the selection to index, clamped to [0, total).
func (v *Viewport) Select(index, total int) {
	v.selected = MoveCursor(0, index, total)
	v.adjust(total)
}

// Clamp restores the invariants after total changed underneath the viewport
// (filter, sort, collapse, new listing).
func (v *Viewport) Clamp(total int) {
	if v.selected >= total {
		v.selected = max(total, 1) - 1
	}
	if v.selected < 0 {
		v.selected = 0
	}
	v.adjust(total)
}

// PageIndex returns the page containing the selection.
func (v *Viewport) PageIndex() int {
	return PageIndex(v.selected, v.PageSize())
}

// TotalPages returns the number of pages needed for total rows.
func (v *Viewport) TotalPages(total int) int {
	return TotalPages(total, v.PageSize())
}

func (v *Viewport) adjust(total int) {
	if total <= 0 {
		v.selected = 0
		v.offset = 0
		return
	}
	v.offset = AdjustOffset(v.selected, v.offset, v.VisibleRows(), total)
}
