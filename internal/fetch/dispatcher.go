// Package fetch runs child lookups for a browser.Browser off the UI
// goroutine and hands the results back as messages, so the Browser itself is
// only ever touched by its owner.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/artpar/awsbrowse/internal/browser"
)

// Func looks up the children of one node.
type Func[K comparable, T any] func(ctx context.Context, key K) ([]T, error)

// ResultMsg carries one finished lookup back to the Update loop.
type ResultMsg[K comparable, T any] struct {
	Scope  string
	Key    K
	Result browser.Result[T]
}

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	concurrency int64
	timeout     time.Duration
	log         logr.Logger
	ticket      func() string
}

// WithConcurrency bounds the number of lookups running at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = int64(n)
		}
	}
}

// WithTimeout bounds each lookup. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithTicketFunc replaces the ticket generator.
func WithTicketFunc(fn func() string) Option {
	return func(o *options) { o.ticket = fn }
}

type inflight struct {
	ticket string
	cancel context.CancelFunc
}

// Dispatcher turns the keys a Browser needs into bubbletea commands.
type Dispatcher[K comparable, T any] struct {
	ctx     context.Context
	scope   string
	fetch   Func[K, T]
	sem     *semaphore.Weighted
	timeout time.Duration
	log     logr.Logger
	ticket  func() string

	mu      sync.Mutex
	running map[K]inflight
}

// NewDispatcher creates a Dispatcher whose lookups run under ctx. Scope is
// copied into every ResultMsg so several dispatchers can share one loop.
func NewDispatcher[K comparable, T any](ctx context.Context, scope string, fn Func[K, T], opts ...Option) *Dispatcher[K, T] {
	o := options{concurrency: 4, log: logr.Discard(), ticket: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher[K, T]{
		ctx:     ctx,
		scope:   scope,
		fetch:   fn,
		sem:     semaphore.NewWeighted(o.concurrency),
		timeout: o.timeout,
		log:     o.log.WithValues("scope", scope),
		ticket:  o.ticket,
		running: make(map[K]inflight),
	}
}

// Scope returns the dispatcher scope.
func (d *Dispatcher[K, T]) Scope() string {
	return d.scope
}

// Dispatch starts a lookup for every key b needs and marks each pending. It
// returns nil when there is nothing to fetch.
func (d *Dispatcher[K, T]) Dispatch(b *browser.Browser[T, K]) tea.Cmd {
	var cmds []tea.Cmd
	for _, key := range b.NeedsFetch() {
		ticket := d.ticket()
		if !b.MarkPending(key, ticket) {
			continue
		}
		cmds = append(cmds, d.start(key, ticket))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (d *Dispatcher[K, T]) start(key K, ticket string) tea.Cmd {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(d.ctx, d.timeout)
	} else {
		ctx, cancel = context.WithCancel(d.ctx)
	}

	d.mu.Lock()
	if prev, ok := d.running[key]; ok {
		prev.cancel()
	}
	d.running[key] = inflight{ticket: ticket, cancel: cancel}
	d.mu.Unlock()

	d.log.V(1).Info("fetching children", "key", key, "ticket", ticket)
	return func() tea.Msg {
		defer cancel()
		children, err := d.run(ctx, key)
		return ResultMsg[K, T]{
			Scope:  d.scope,
			Key:    key,
			Result: browser.Result[T]{Ticket: ticket, Children: children, Err: err},
		}
	}
}

func (d *Dispatcher[K, T]) run(ctx context.Context, key K) ([]T, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, describe(err, d.timeout)
	}
	defer d.sem.Release(1)

	children, err := d.fetch(ctx, key)
	if err != nil {
		return nil, describe(err, d.timeout)
	}
	return children, nil
}

func describe(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", timeout, err)
	}
	return err
}

// Apply hands a finished lookup to b. It reports whether b accepted it.
func (d *Dispatcher[K, T]) Apply(b *browser.Browser[T, K], msg ResultMsg[K, T]) bool {
	d.mu.Lock()
	if cur, ok := d.running[msg.Key]; ok && cur.ticket == msg.Result.Ticket {
		delete(d.running, msg.Key)
	}
	d.mu.Unlock()

	return b.Record(msg.Key, msg.Result)
}

// Cancel aborts the lookups for keys, if any are running. Their results
// still arrive and are dropped by the Browser.
func (d *Dispatcher[K, T]) Cancel(keys ...K) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range keys {
		if cur, ok := d.running[key]; ok {
			cur.cancel()
			delete(d.running, key)
			d.log.V(1).Info("cancelled fetch", "key", key)
		}
	}
}

// InFlight returns the number of lookups not yet applied.
func (d *Dispatcher[K, T]) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.running)
}

// Close cancels every running lookup.
func (d *Dispatcher[K, T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, cur := range d.running {
		cur.cancel()
		delete(d.running, key)
	}
}
