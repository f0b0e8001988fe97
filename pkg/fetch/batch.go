package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result pairs one input key with its fetch outcome. Per-key failures are
// recorded here rather than aborting the batch.
type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// FetchBatch fans the keys out through FetchOne, bounded by the agent's
// concurrency limit, and yields results as they complete. Ordering follows
// completion, not input order; every input key yields exactly one result.
// The channel is closed once all keys have resolved.
func (a *Agent[K, V]) FetchBatch(ctx context.Context, keys []K) <-chan Result[K, V] {
	out := make(chan Result[K, V], len(keys))

	var group errgroup.Group
	group.SetLimit(a.opts.Concurrency)

	go func() {
		defer close(out)

		for _, key := range keys {
			group.Go(func() error {
				value, err := a.FetchOne(ctx, key)
				out <- Result[K, V]{Key: key, Value: value, Err: err}
				return nil
			})
		}

		group.Wait()
	}()

	return out
}
