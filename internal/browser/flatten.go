package browser

import (
	"slices"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// RowKind distinguishes item rows from inert placeholders.
type RowKind int

const (
	RowItem RowKind = iota
	RowError
)

// Row is one line of the flattened tree. Rows are rebuilt on every pass and
// never stored.
type Row[T any, K comparable] struct {
	Kind RowKind
	Item T
	Key  K

	// Depth is the nesting level; top-level rows are at depth 0.
	Depth int

	// IsLast has Depth+1 entries. IsLast[i] reports whether the ancestor at
	// depth i (or the row itself for i == Depth) is the last of its siblings.
	IsLast []bool

	Expandable bool
	Expanded   bool

	// State is the child fetch state of an expandable row.
	State EntryState

	// Selectable is false for error placeholders.
	Selectable bool

	// Message holds one wrapped line of fetch error text for RowError rows.
	Message string
}

// Flatten projects the visible top-level items and every expanded subtree
// into rows, depth first. Children are emitted in the order they were
// fetched; only the top level is filtered and sorted by the caller.
//
// Failed subtrees produce non-selectable error rows wrapped to wrapWidth
// (no wrapping when wrapWidth <= 0). Pending subtrees produce nothing.
// A child whose key is already on the path from the root is shown but not
// descended into.
func Flatten[T any, K comparable](top []T, c Capability[T, K], exp *ExpansionSet[K], cache *ChildCache[K, T], wrapWidth int) []Row[T, K] {
	f := &flattener[T, K]{
		cap:    c,
		exp:    exp,
		cache:  cache,
		wrap:   wrapWidth,
		onPath: make(map[K]bool),
	}
	f.walk(top, nil)
	return f.rows
}

type flattener[T any, K comparable] struct {
	cap    Capability[T, K]
	exp    *ExpansionSet[K]
	cache  *ChildCache[K, T]
	wrap   int
	onPath map[K]bool
	rows   []Row[T, K]
}

func (f *flattener[T, K]) walk(items []T, parentLast []bool) {
	for i, item := range items {
		last := append(slices.Clone(parentLast), i == len(items)-1)
		row := Row[T, K]{
			Kind:       RowItem,
			Item:       item,
			Depth:      len(parentLast),
			IsLast:     last,
			Selectable: true,
		}
		if !f.cap.IsExpandable(item) {
			f.rows = append(f.rows, row)
			continue
		}

		key := f.cap.KeyOf(item)
		row.Key = key
		row.Expandable = true
		row.Expanded = f.exp.Has(key)
		row.State = f.cache.State(key)
		f.rows = append(f.rows, row)

		if row.Expanded && !f.onPath[key] {
			f.descend(key, last)
		}
	}
}

func (f *flattener[T, K]) descend(key K, last []bool) {
	entry := f.cache.Get(key)
	switch entry.State {
	case StateLoaded:
		f.onPath[key] = true
		f.walk(entry.Children, last)
		delete(f.onPath, key)
	case StateFailed:
		for _, line := range WrapMessage(entry.Message, f.wrap) {
			f.rows = append(f.rows, Row[T, K]{
				Kind:    RowError,
				Key:     key,
				Depth:   len(last),
				IsLast:  append(slices.Clone(last), true),
				Message: line,
			})
		}
	}
}

// CountRows returns the number of selectable rows Flatten would produce for
// the same inputs, without building them.
func CountRows[T any, K comparable](top []T, c Capability[T, K], exp *ExpansionSet[K], cache *ChildCache[K, T]) int {
	return countRows(top, c, exp, cache, make(map[K]bool))
}

func countRows[T any, K comparable](items []T, c Capability[T, K], exp *ExpansionSet[K], cache *ChildCache[K, T], onPath map[K]bool) int {
	n := len(items)
	for _, item := range items {
		if !c.IsExpandable(item) {
			continue
		}
		key := c.KeyOf(item)
		if !exp.Has(key) || onPath[key] {
			continue
		}
		if entry := cache.Get(key); entry.State == StateLoaded {
			onPath[key] = true
			n += countRows(entry.Children, c, exp, cache, onPath)
			delete(onPath, key)
		}
	}
	return n
}

// WrapMessage word-wraps fetch error text into display lines.
func WrapMessage(msg string, width int) []string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "failed to load children"
	}
	if width > 0 {
		msg = wordwrap.String(msg, width)
	}
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}
