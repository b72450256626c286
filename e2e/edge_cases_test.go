package e2e

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/awsbrowse/e2e/harness"
)

func TestEdgeCase_EmptyInventory(t *testing.T) {
	h := harness.New(t, harness.Config{Inventory: "bucket: []\n"})
	s := h.TUI().Start(t)

	a := harness.NewAssertions(t)
	a.OutputContains(s.Output(), "1 Buckets (0)", "no buckets")

	// Navigation on an empty table is a no-op.
	s.SendKeys("j", "l", "G", "y", "h")
	assert.Empty(t, s.Clipboard())
	a.OutputContains(s.Output(), "no buckets")
}

func TestEdgeCase_SmallTerminal(t *testing.T) {
	h := harness.New(t, harness.Config{})
	s := h.TUI().StartWithSize(t, 40, 10)

	a := harness.NewAssertions(t)
	a.LinesFit(s.Output(), 40)

	s.SendKey("l")
	s.WaitFor(func(s *harness.TUISession) bool { return s.Active().Browser().TotalRows() == 5 })
	a.LinesFit(s.Output(), 40)

	s.Resize(100, 30)
	a.LinesFit(s.Output(), 100)
	a.OutputContains(s.Output(), "index.html")
}

func TestEdgeCase_ManyBuckets(t *testing.T) {
	var b strings.Builder
	b.WriteString("bucket:\n")
	for i := range 120 {
		fmt.Fprintf(&b, "  - name: bucket-%03d\n    region: us-east-1\n", i)
	}
	h := harness.New(t, harness.Config{Inventory: b.String()})
	s := h.TUI().Start(t)

	b0 := s.Active().Browser()
	assert.Equal(t, 120, b0.TotalRows())
	assert.Equal(t, 3, b0.TotalPages())
	assert.Contains(t, s.Output(), "page 1/3")

	s.SendKey("G")
	assert.Equal(t, 119, s.Active().Browser().Selected())
	assert.Contains(t, s.Output(), "bucket-119")
	assert.Contains(t, s.Output(), "page 3/3")

	s.SendKeys("g", "g")
	assert.Equal(t, 0, s.Active().Browser().Selected())
	assert.Contains(t, s.Output(), "bucket-000")

	// ctrl+f moves one window, pages hold PageSize rows.
	vis := s.Active().Browser().VisibleRows()
	require.Positive(t, vis)
	require.Less(t, vis, 50)
	s.SendKey("ctrl+f")
	assert.Equal(t, vis, s.Active().Browser().Selected())
	assert.Equal(t, 0, s.Active().Browser().PageIndex())

	for range 50 / vis {
		s.SendKey("ctrl+f")
	}
	b1 := s.Active().Browser()
	assert.Equal(t, b1.Selected()/50, b1.PageIndex())
	assert.Equal(t, 1, b1.PageIndex())
	assert.Contains(t, s.Output(), "page 2/3")
}

func TestEdgeCase_ExpandWhileLoading(t *testing.T) {
	h := harness.New(t, harness.Config{Inventory: `
bucket:
  - name: slow
    children:
      - name: late.txt
    delay: 300ms
`})
	s := h.TUI().Start(t)

	// Collapse before the lookup returns, then expand again.
	s.SendKeys("l", "h", "l")
	ok := s.WaitFor(func(s *harness.TUISession) bool {
		return strings.Contains(s.Output(), "late.txt")
	})
	assert.True(t, ok, s.Output())
	assert.Equal(t, 2, s.Active().Browser().TotalRows())
}
