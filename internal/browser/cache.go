package browser

// EntryState is the fetch state of a node's children.
type EntryState int

const (
	// StateAbsent means no fetch was ever requested for the key.
	StateAbsent EntryState = iota
	// StatePending means a fetch is in flight.
	StatePending
	// StateLoaded means the children arrived. Loaded entries are immutable.
	StateLoaded
	// StateFailed means the fetch failed. Failed entries are not retried.
	StateFailed
)

// String returns the state name.
func (s EntryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Entry is one child cache slot.
type Entry[T any] struct {
	State    EntryState
	Children []T
	Message  string
	Ticket   string
}

// Result is what a fetch reports back for one key. Err takes precedence
// over Children.
type Result[T any] struct {
	Ticket   string
	Children []T
	Err      error
}

// Loaded builds a successful result.
func Loaded[T any](children []T) Result[T] {
	return Result[T]{Children: children}
}

// Failed builds a failed result.
func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// ChildCache memoizes fetch results per node key.
type ChildCache[K comparable, T any] struct {
	entries map[K]Entry[T]
}

// Get returns the entry for key; absent keys return a zero Entry with
// StateAbsent.
func (c *ChildCache[K, T]) Get(key K) Entry[T] {
	if c == nil {
		return Entry[T]{}
	}
	return c.entries[key]
}

// State returns the fetch state for key.
func (c *ChildCache[K, T]) State(key K) EntryState {
	return c.Get(key).State
}

// MarkPending records that a fetch with the given ticket is in flight.
// Loaded and failed entries are left alone.
func (c *ChildCache[K, T]) MarkPending(key K, ticket string) bool {
	if st := c.State(key); st == StateLoaded || st == StateFailed {
		return false
	}
	c.set(key, Entry[T]{State: StatePending, Ticket: ticket})
	return true
}

// Record applies a fetch result. It reports false when the result is
// rejected: the entry is already final, or a different fetch is pending.
func (c *ChildCache[K, T]) Record(key K, res Result[T]) bool {
	cur := c.entries[key]
	switch cur.State {
	case StateLoaded, StateFailed:
		return false
	case StatePending:
		if cur.Ticket != "" && res.Ticket != cur.Ticket {
			return false
		}
	}
	if res.Err != nil {
		c.set(key, Entry[T]{State: StateFailed, Message: res.Err.Error()})
		return true
	}
	c.set(key, Entry[T]{State: StateLoaded, Children: res.Children})
	return true
}

// Evict forgets key.
func (c *ChildCache[K, T]) Evict(key K) {
	delete(c.entries, key)
}

// Len returns the number of entries.
func (c *ChildCache[K, T]) Len() int {
	return len(c.entries)
}

func (c *ChildCache[K, T]) set(key K, e Entry[T]) {
	if c.entries == nil {
		c.entries = make(map[K]Entry[T])
	}
	c.entries[key] = e
}
