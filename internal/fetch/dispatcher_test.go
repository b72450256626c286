package fetch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/awsbrowse/internal/browser"
)

type entry struct {
	Path string
	Dir  bool
}

type entryCap struct{}

func (entryCap) KeyOf(e entry) string                 { return e.Path }
func (entryCap) IsExpandable(e entry) bool            { return e.Dir }
func (entryCap) MatchesFilter(e entry, f string) bool { return browser.MatchSubstring(f, e.Path) }
func (entryCap) Compare(a, b entry, _ string) int     { return cmp.Compare(a.Path, b.Path) }
func (entryCap) Columns() []browser.Column[entry]     { return nil }

func newBrowser(t *testing.T, top ...entry) *browser.Browser[entry, string] {
	t.Helper()
	b := browser.New[entry, string](entryCap{})
	b.SetItems(top)
	return b
}

// drain runs cmd and every command batched inside it, collecting messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func sequentialTickets() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("t%d", n.Add(1)) }
}

func TestDispatcher_DispatchAndApply(t *testing.T) {
	b := newBrowser(t, entry{Path: "a", Dir: true}, entry{Path: "b", Dir: true})
	require.True(t, b.Expand("a"))
	require.True(t, b.Expand("b"))

	fn := func(ctx context.Context, key string) ([]entry, error) {
		if key == "a" {
			return nil, errors.New("AccessDenied")
		}
		return []entry{{Path: key + "/x"}, {Path: key + "/y"}}, nil
	}
	d := NewDispatcher(context.Background(), "buckets", fn, WithTicketFunc(sequentialTickets()))

	cmd := d.Dispatch(b)
	require.NotNil(t, cmd)
	assert.Empty(t, b.NeedsFetch(), "dispatched keys are pending")
	assert.Equal(t, browser.StatePending, b.Entry("a").State)
	assert.Equal(t, 2, d.InFlight())

	msgs := drain(cmd)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		res, ok := m.(ResultMsg[string, entry])
		require.True(t, ok)
		assert.Equal(t, "buckets", res.Scope)
		assert.True(t, d.Apply(b, res))
	}

	assert.Equal(t, 0, d.InFlight())
	assert.Equal(t, browser.StateFailed, b.Entry("a").State)
	assert.Equal(t, "AccessDenied", b.Entry("a").Message)
	assert.Equal(t, browser.StateLoaded, b.Entry("b").State)
	assert.Equal(t, 4, b.TotalRows())
	assert.Nil(t, d.Dispatch(b), "nothing left to fetch")
}

func TestDispatcher_CancelOnCollapseDropsResult(t *testing.T) {
	b := newBrowser(t, entry{Path: "a", Dir: true})
	require.True(t, b.Expand("a"))

	started := make(chan struct{})
	fn := func(ctx context.Context, key string) ([]entry, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	d := NewDispatcher(context.Background(), "s", fn)
	cmd := d.Dispatch(b)
	require.NotNil(t, cmd)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	<-started

	evicted := b.Collapse("a")
	d.Cancel(evicted...)

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch was not cancelled")
	}
	res := msg.(ResultMsg[string, entry])
	require.Error(t, res.Result.Err)
	assert.False(t, d.Apply(b, res), "collapsed key drops the result")
	assert.Equal(t, browser.StateAbsent, b.Entry("a").State)
}

func TestDispatcher_Timeout(t *testing.T) {
	b := newBrowser(t, entry{Path: "slow", Dir: true})
	require.True(t, b.Expand("slow"))

	fn := func(ctx context.Context, key string) ([]entry, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	d := NewDispatcher(context.Background(), "s", fn, WithTimeout(20*time.Millisecond))

	msgs := drain(d.Dispatch(b))
	require.Len(t, msgs, 1)
	res := msgs[0].(ResultMsg[string, entry])
	assert.ErrorIs(t, res.Result.Err, context.DeadlineExceeded)
	assert.Contains(t, res.Result.Err.Error(), "timed out after 20ms")

	require.True(t, d.Apply(b, res))
	assert.Equal(t, browser.StateFailed, b.Entry("slow").State)
}

func TestDispatcher_ConcurrencyBound(t *testing.T) {
	var top []entry
	for i := range 8 {
		top = append(top, entry{Path: fmt.Sprintf("k%d", i), Dir: true})
	}
	b := newBrowser(t, top...)
	for _, e := range top {
		require.True(t, b.Expand(e.Path))
	}

	var running, peak atomic.Int64
	fn := func(ctx context.Context, key string) ([]entry, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil, nil
	}
	d := NewDispatcher(context.Background(), "s", fn, WithConcurrency(2))

	cmd := d.Dispatch(b)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	msgs := make(chan tea.Msg, len(batch))
	for _, c := range batch {
		go func() { msgs <- c() }()
	}
	for range batch {
		d.Apply(b, (<-msgs).(ResultMsg[string, entry]))
	}

	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Empty(t, b.NeedsFetch())
}

func TestDispatcher_Close(t *testing.T) {
	b := newBrowser(t, entry{Path: "a", Dir: true})
	require.True(t, b.Expand("a"))

	fn := func(ctx context.Context, key string) ([]entry, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	d := NewDispatcher(context.Background(), "s", fn)
	cmd := d.Dispatch(b)
	d.Close()
	assert.Equal(t, 0, d.InFlight())

	res := cmd().(ResultMsg[string, entry])
	assert.ErrorIs(t, res.Result.Err, context.Canceled)
}
