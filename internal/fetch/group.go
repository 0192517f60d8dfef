package fetch

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Group de-duplicates concurrent loads of the same key. The shared load runs
// with a context that keeps the first caller's values but not its
// cancellation, so one caller going away never fails the others. Each caller
// stops waiting as soon as its own context is done.
type Group struct {
	flight singleflight.Group
}

// Do runs load once for all concurrent callers of key and returns its result.
// A caller whose context ends first gets ctx.Err() while the load carries on
// for the remaining callers.
func (g *Group) Do(ctx context.Context, key string, load func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	ch := g.flight.DoChan(key, func() (interface{}, error) {
		return load(detached)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
