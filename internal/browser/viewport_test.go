package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveCursor(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		delta  int
		count  int
		want   int
	}{
		{"empty list", 5, 1, 0, 0},
		{"move down", 0, 1, 10, 1},
		{"move up", 5, -1, 10, 4},
		{"clamp top", 0, -3, 10, 0},
		{"clamp bottom", 8, 5, 10, 9},
		{"jump", 2, 5, 10, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MoveCursor(tt.cursor, tt.delta, tt.count))
		})
	}
}

func TestAdjustOffset(t *testing.T) {
	tests := []struct {
		name    string
		cursor  int
		offset  int
		visible int
		count   int
		want    int
	}{
		{"cursor visible", 5, 0, 10, 100, 0},
		{"cursor below window", 10, 0, 10, 100, 1},
		{"cursor above window", 3, 5, 10, 100, 3},
		{"zero height treated as one", 4, 0, 0, 100, 4},
		{"shrunk list pulls offset back", 4, 8, 5, 6, 1},
		{"empty list", 0, 7, 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustOffset(tt.cursor, tt.offset, tt.visible, tt.count))
		})
	}
}

func TestViewport_ScrollHysteresis(t *testing.T) {
	t.Run("leaving the bottom scrolls by one and returning does not snap back", func(t *testing.T) {
		// With 50 visible rows, row 49 at offset 0 is the bottom of the window.
		v := Viewport{selected: 49, offset: 0, visibleRows: 50}

		v.Next(100)
		assert.Equal(t, 50, v.Selected())
		assert.Equal(t, 1, v.Offset())

		v.Prev(100)
		assert.Equal(t, 49, v.Selected())
		assert.Equal(t, 1, v.Offset(), "offset must not return to 0")
	})

	t.Run("ten visible rows", func(t *testing.T) {
		v := NewViewport(10, 10)
		for range 10 {
			v.Next(100)
		}
		assert.Equal(t, 10, v.Selected())
		assert.Equal(t, 1, v.Offset())

		v.Prev(100)
		assert.Equal(t, 9, v.Selected())
		assert.Equal(t, 1, v.Offset())

		v.Prev(100)
		assert.Equal(t, 8, v.Selected())
		assert.Equal(t, 1, v.Offset())

		v.Jump(-8, 100)
		assert.Equal(t, 0, v.Selected())
		assert.Equal(t, 0, v.Offset())
	})
}

func TestViewport_Jump(t *testing.T) {
	v := NewViewport(10, 10)

	v.Jump(25, 30)
	assert.Equal(t, 25, v.Selected())
	assert.Equal(t, 16, v.Offset())

	v.Jump(100, 30)
	assert.Equal(t, 29, v.Selected())
	assert.Equal(t, 20, v.Offset())

	v.Jump(-5, 30)
	assert.Equal(t, 24, v.Selected())
	assert.Equal(t, 20, v.Offset(), "still visible, no scroll")

	v.Jump(-100, 30)
	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, 0, v.Offset())
}

func TestViewport_PageMoves(t *testing.T) {
	v := NewViewport(10, 10)

	v.HalfPageDown(100)
	assert.Equal(t, 5, v.Selected())
	v.PageDown(100)
	assert.Equal(t, 15, v.Selected())
	assert.Equal(t, 6, v.Offset())
	v.HalfPageUp(100)
	assert.Equal(t, 10, v.Selected())
	v.PageUp(100)
	assert.Equal(t, 0, v.Selected())

	v.Bottom(100)
	assert.Equal(t, 99, v.Selected())
	assert.Equal(t, 90, v.Offset())
	v.Top(100)
	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, 0, v.Offset())
}

func TestViewport_EmptyIsNoOp(t *testing.T) {
	v := NewViewport(10, 10)
	v.Next(0)
	v.Prev(0)
	v.Jump(7, 0)
	v.Bottom(0)
	v.PageDown(0)
	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, 0, v.Offset())
	assert.Equal(t, 0, v.TotalPages(0))
}

func TestViewport_ZeroVisibleRows(t *testing.T) {
	v := NewViewport(0, 0)
	assert.Equal(t, 1, v.VisibleRows())
	assert.Equal(t, 1, v.PageSize())

	v.Next(5)
	v.Next(5)
	assert.Equal(t, 2, v.Selected())
	assert.Equal(t, 2, v.Offset())
}

func TestViewport_ClampAfterShrink(t *testing.T) {
	v := NewViewport(10, 10)
	v.Select(40, 50)
	assert.Equal(t, 31, v.Offset())

	v.Clamp(12)
	assert.Equal(t, 11, v.Selected())
	assert.Equal(t, 2, v.Offset())

	v.Clamp(0)
	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, 0, v.Offset())
}

func TestViewport_Pagination(t *testing.T) {
	v := NewViewport(20, 10)
	assert.Equal(t, 5, v.TotalPages(50))
	assert.Equal(t, 0, v.PageIndex())

	v.Select(37, 50)
	assert.Equal(t, 3, v.PageIndex())

	assert.Equal(t, 6, v.TotalPages(51))
	assert.Equal(t, 1, v.TotalPages(1))
}

func TestViewport_PageDownMovesOneWindow(t *testing.T) {
	v := NewViewport(20, 50)

	v.PageDown(120)
	assert.Equal(t, 20, v.Selected())
	assert.Equal(t, 0, v.PageIndex(), "a window is shorter than a page")

	v.PageDown(120)
	v.PageDown(120)
	assert.Equal(t, 60, v.Selected())
	assert.Equal(t, 1, v.PageIndex())
}
