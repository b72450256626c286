package browser

import "slices"

// ExpansionSet is the set of node keys currently shown expanded. Membership
// says nothing about whether the children have arrived yet.
type ExpansionSet[K comparable] struct {
	keys  map[K]struct{}
	order []K
}

// Has reports whether key is expanded.
func (s *ExpansionSet[K]) Has(key K) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[key]
	return ok
}

// Expand adds key. It reports false if key was already expanded.
func (s *ExpansionSet[K]) Expand(key K) bool {
	if s.Has(key) {
		return false
	}
	if s.keys == nil {
		s.keys = make(map[K]struct{})
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
	return true
}

// Collapse removes key. It reports false if key was not expanded.
func (s *ExpansionSet[K]) Collapse(key K) bool {
	if !s.Has(key) {
		return false
	}
	delete(s.keys, key)
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

// Keys returns the expanded keys in the order they were expanded.
func (s *ExpansionSet[K]) Keys() []K {
	return slices.Clone(s.order)
}

// Len returns the number of expanded keys.
func (s *ExpansionSet[K]) Len() int {
	return len(s.order)
}
