// Package browser is the list engine behind every resource screen: a filtered
// and sorted top-level listing, lazily fetched children for expanded nodes,
// the flattening of that tree into visual rows and the viewport that scrolls
// over them.
//
// The package never fetches anything and never renders anything. Item
// payloads are opaque; everything it needs to know about them comes from a
// Capability.
package browser

import "strings"

// Capability is what a resource type supplies to be browsable.
type Capability[T any, K comparable] interface {
	// KeyOf returns the stable identity of an item. It is only called for
	// items that are expandable.
	KeyOf(item T) K

	// IsExpandable reports whether the item may have children.
	IsExpandable(item T) bool

	// MatchesFilter reports whether the item matches a non-empty filter.
	MatchesFilter(item T, filter string) bool

	// Compare orders two items by the given sort key, ascending.
	Compare(a, b T, sortKey string) int

	// Columns describes how the item is laid out in a table.
	Columns() []Column[T]
}

// Column describes one table column of an item type.
type Column[T any] struct {
	ID    string
	Title string
	Width int
	Value func(item T) string
}

// MatchSubstring reports whether any of fields contains filter, ignoring case.
// An empty filter matches everything.
func MatchSubstring(filter string, fields ...string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), filter) {
			return true
		}
	}
	return false
}
