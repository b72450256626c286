package browser

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func checkViewport(t *rapid.T, b *Browser[node, string]) {
	total := b.TotalRows()
	sel, off, vis := b.Selected(), b.Offset(), b.VisibleRows()

	if sel < 0 || sel >= max(total, 1) {
		t.Fatalf("selected %d out of range for %d rows", sel, total)
	}
	if total == 0 {
		if sel != 0 || off != 0 {
			t.Fatalf("empty listing must rest at 0/0, got %d/%d", sel, off)
		}
		return
	}
	if sel < off || sel >= off+vis {
		t.Fatalf("selected %d outside window [%d, %d)", sel, off, off+vis)
	}
	if off+vis > max(total, vis) {
		t.Fatalf("window [%d, %d) runs past %d rows", off, off+vis, total)
	}
}

func TestProperty_NavigationKeepsSelectionVisible(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 120).Draw(t, "items")
		vis := rapid.IntRange(0, 25).Draw(t, "visible")
		b := New[node, string](nodeCap{}, WithVisibleRows(vis))
		b.SetItems(items(n, "item"))

		ops := rapid.SliceOfN(rapid.IntRange(0, 7), 1, 60).Draw(t, "ops")
		for _, op := range ops {
			switch op {
			case 0:
				b.NextItem()
			case 1:
				b.PrevItem()
			case 2:
				b.Jump(rapid.IntRange(-50, 50).Draw(t, "delta"))
			case 3:
				b.PageDown()
			case 4:
				b.HalfPageUp()
			case 5:
				b.JumpToBottom()
			case 6:
				b.JumpToTop()
			case 7:
				b.SetVisibleRows(rapid.IntRange(0, 25).Draw(t, "resize"))
			}
			checkViewport(t, b)
		}
	})
}

func TestProperty_ScrollMovesMinimally(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(t, "items")
		vis := rapid.IntRange(1, 30).Draw(t, "visible")
		b := New[node, string](nodeCap{}, WithVisibleRows(vis))
		b.SetItems(items(n, "item"))

		for _, delta := range rapid.SliceOfN(rapid.IntRange(-40, 40), 1, 40).Draw(t, "deltas") {
			before := b.Offset()
			b.Jump(delta)
			sel := b.Selected()
			if sel >= before && sel < before+vis && b.Offset() != before {
				t.Fatalf("offset moved from %d to %d although %d was visible", before, b.Offset(), sel)
			}
		}
	})
}

// TestProperty_CountMatchesFlatten expands random folders and records random
// results, checking after every step that both row counts agree and the
// viewport holds.
func TestProperty_CountMatchesFlatten(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		top := make([]node, rapid.IntRange(0, 8).Draw(t, "top"))
		for i := range top {
			id := fmt.Sprintf("n%d", i)
			top[i] = node{ID: id, Name: id, Folder: rapid.Bool().Draw(t, "folder")}
		}
		b := New[node, string](nodeCap{}, WithVisibleRows(rapid.IntRange(1, 10).Draw(t, "visible")), WithWrapWidth(8))
		b.SetItems(top)

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for step := range steps {
			rows := b.Rows()
			if got, want := b.TotalRows(), selectableCount(rows); got != want {
				t.Fatalf("CountRows %d != selectable rows %d", got, want)
			}
			checkViewport(t, b)

			switch rapid.IntRange(0, 3).Draw(t, "action") {
			case 0:
				b.Jump(rapid.IntRange(-5, 5).Draw(t, "delta"))
			case 1:
				b.ToggleSelected()
			case 2:
				for _, key := range b.NeedsFetch() {
					if rapid.Bool().Draw(t, "fail") {
						b.Record(key, Failed[node](errors.New("request failed with a long message")))
						continue
					}
					kids := make([]node, rapid.IntRange(0, 4).Draw(t, "kids"))
					for i := range kids {
						id := fmt.Sprintf("%s/%d.%d", key, step, i)
						kids[i] = node{ID: id, Name: id, Folder: rapid.Bool().Draw(t, "kidFolder")}
					}
					b.Record(key, Loaded(kids))
				}
			case 3:
				b.SetFilter(rapid.SampledFrom([]string{"", "n1", "n", "zzz"}).Draw(t, "filter"))
			}
		}
		checkViewport(t, b)
	})
}
