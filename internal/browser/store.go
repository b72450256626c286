package browser

import "slices"

// SortDirection is the direction of the active sort.
type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

// String returns a short label for the direction.
func (d SortDirection) String() string {
	if d == SortDesc {
		return "desc"
	}
	return "asc"
}

// Store holds the top-level items of a listing along with the active filter
// and sort. Storage order is never changed by filtering or sorting; View
// always returns a fresh slice.
type Store[T any] struct {
	items   []T
	filter  string
	sortKey string
	sortDir SortDirection
}

// SetItems replaces the listing wholesale.
func (s *Store[T]) SetItems(items []T) {
	s.items = slices.Clone(items)
}

// Items returns the items in storage order.
func (s *Store[T]) Items() []T {
	return s.items
}

// Len returns the number of stored items, ignoring the filter.
func (s *Store[T]) Len() int {
	return len(s.items)
}

// Filter returns the active filter string.
func (s *Store[T]) Filter() string {
	return s.filter
}

// SetFilter sets the free-text filter. An empty string disables filtering.
func (s *Store[T]) SetFilter(filter string) {
	s.filter = filter
}

// Sort returns the active sort key and direction. An empty key means
// storage order.
func (s *Store[T]) Sort() (string, SortDirection) {
	return s.sortKey, s.sortDir
}

// SetSort sets the sort key and direction.
func (s *Store[T]) SetSort(key string, dir SortDirection) {
	s.sortKey = key
	s.sortDir = dir
}

// View returns the filtered and sorted top-level items.
func (s *Store[T]) View(matches func(T, string) bool, compare func(a, b T, key string) int) []T {
	view := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if s.filter == "" || matches(item, s.filter) {
			view = append(view, item)
		}
	}
	if s.sortKey == "" || compare == nil {
		return view
	}
	key, desc := s.sortKey, s.sortDir == SortDesc
	slices.SortStableFunc(view, func(a, b T) int {
		if desc {
			return compare(b, a, key)
		}
		return compare(a, b, key)
	})
	return view
}
