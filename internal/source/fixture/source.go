package fixture

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
)

// Source implements source.Source over an Inventory.
type Source struct {
	path string

	mu     sync.RWMutex
	inv    Inventory
	index  map[resources.Kind]map[string]*Node
	closed bool
}

var _ source.Source = (*Source)(nil)

// New creates a source serving inv.
func New(inv Inventory) *Source {
	s := &Source{}
	s.swap(inv)
	return s
}

// Open creates a source serving the inventory file at path. Reload and
// Watch re-read the same file.
func Open(path string) (*Source, error) {
	inv, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := New(inv)
	s.path = path
	return s, nil
}

// Path returns the inventory file path, or "" for in-memory inventories.
func (s *Source) Path() string {
	return s.path
}

func (s *Source) swap(inv Inventory) {
	index := make(map[resources.Kind]map[string]*Node, len(inv))
	_ = inv.Walk(func(listing resources.Kind, _ string, n *Node) error {
		if index[listing] == nil {
			index[listing] = make(map[string]*Node)
		}
		index[listing][n.ID] = n
		return nil
	})

	s.mu.Lock()
	s.inv = inv
	s.index = index
	s.mu.Unlock()
}

// Reload re-reads the inventory file. On error the current inventory is
// kept.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	inv, err := ReadFile(s.path)
	if err != nil {
		return err
	}
	s.swap(inv)
	return nil
}

// Inventory returns the inventory being served.
func (s *Source) Inventory() Inventory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inv
}

// List returns the top-level nodes of kind.
func (s *Source) List(ctx context.Context, kind resources.Kind) ([]resources.Resource, error) {
	if err := source.CheckKind(kind); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, source.ErrClosed
	}
	return flatten(s.inv[kind]), nil
}

// Children returns the children of key, honoring the node's delay and
// error.
func (s *Source) Children(ctx context.Context, kind resources.Kind, key string) ([]resources.Resource, error) {
	if err := source.CheckKind(kind); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, source.ErrClosed
	}
	n, ok := s.index[kind][key]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s %q", source.ErrNotFound, kind, key)
	}
	delay, failure, children := n.Delay, n.Error, flatten(n.Children)
	s.mu.RUnlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if failure != "" {
		return nil, errors.New(failure)
	}
	return children, nil
}

// Close marks the source closed.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func flatten(nodes []Node) []resources.Resource {
	out := make([]resources.Resource, 0, len(nodes))
	for _, n := range nodes {
		r := n.Resource
		r.Attrs = maps.Clone(r.Attrs)
		out = append(out, r)
	}
	return out
}
