package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/artpar/awsbrowse/internal/browser"
)

// Outcome is the result of one lookup made by Resolve.
type Outcome[K comparable, T any] struct {
	Key      K
	Children []T
	Err      error
}

// Resolve looks up keys concurrently, at most limit at a time, and returns
// one Outcome per key in the order of keys. A failing lookup never cancels
// its siblings.
func Resolve[K comparable, T any](ctx context.Context, keys []K, fn Func[K, T], limit int) []Outcome[K, T] {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make(chan Outcome[K, T], len(keys))
	for _, key := range keys {
		g.Go(func() error {
			children, err := fn(gctx, key)
			results <- Outcome[K, T]{Key: key, Children: children, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	byKey := make(map[K]Outcome[K, T], len(keys))
	for res := range results {
		byKey[res.Key] = res
	}
	out := make([]Outcome[K, T], 0, len(keys))
	for _, key := range keys {
		if res, ok := byKey[key]; ok {
			out = append(out, res)
		}
	}
	return out
}

// ExpandTo expands every expandable row of b down to depth and fetches the
// children each expansion needs, applying results on the calling goroutine.
// It stops early if ctx is cancelled.
func ExpandTo[K comparable, T any](ctx context.Context, b *browser.Browser[T, K], fn Func[K, T], depth, limit int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.ExpandVisible(depth)
		keys := b.NeedsFetch()
		if len(keys) == 0 {
			return nil
		}
		for _, res := range Resolve(ctx, keys, fn, limit) {
			b.Record(res.Key, browser.Result[T]{Children: res.Children, Err: res.Err})
		}
	}
}
