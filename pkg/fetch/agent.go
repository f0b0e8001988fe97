package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Func performs a single fetch for one key against an external data source.
type Func[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Options tunes an agent's quota, retry, and fan-out behavior. All fields
// are externally configurable; zero values fall back to defaults.
type Options struct {
	MaxAttempts int           // attempt budget charged by transient errors
	BackoffBase time.Duration // first backoff delay
	BackoffCap  time.Duration // upper bound on a single backoff delay
	Quota       int           // calls allowed per window
	Window      time.Duration // quota refresh interval
	Concurrency int           // in-flight call bound for batches
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Second
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 30 * time.Second
	}
	if o.Quota <= 0 {
		o.Quota = 1000
	}
	if o.Window <= 0 {
		o.Window = time.Hour
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	return o
}

// Agent issues calls to one external data source under a token-bucket rate
// budget, retrying transient and rate-limit errors per their classification.
// One Agent is instantiated per data source and shared across sessions.
type Agent[K comparable, V any] struct {
	name    string
	fn      Func[K, V]
	limiter *rate.Limiter
	opts    Options
}

// NewAgent creates a fetch agent for one external data source. The quota is
// enforced as a token bucket refilling at quota-per-window with a burst of
// one full window's quota.
func NewAgent[K comparable, V any](name string, fn Func[K, V], opts Options) *Agent[K, V] {
	opts = opts.withDefaults()
	limit := rate.Limit(float64(opts.Quota) / opts.Window.Seconds())

	return &Agent[K, V]{
		name:    name,
		fn:      fn,
		limiter: rate.NewLimiter(limit, opts.Quota),
		opts:    opts,
	}
}

// FetchOne fetches a single key, blocking on quota waits and backoff delays.
// Permanent errors fail immediately. Rate-limit errors wait out the quota
// window without charging the attempt budget. Transient errors retry with
// exponential backoff and jitter until the attempt budget is exhausted.
func (a *Agent[K, V]) FetchOne(ctx context.Context, key K) (V, error) {
	var zero V
	attempts := 0

	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return zero, err
		}

		value, err := a.fn(ctx, key)
		if err == nil {
			return value, nil
		}

		switch {
		case IsPermanent(err):
			return zero, err

		case IsRateLimit(err):
			// Uncounted: block until the quota refreshes, then retry
			delay := RetryAfter(err)
			if delay <= 0 {
				delay = a.opts.Window
			}
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}

		default:
			attempts++
			if attempts >= a.opts.MaxAttempts {
				return zero, fmt.Errorf("%s: %d attempts exhausted for %v: %w", a.name, attempts, key, err)
			}
			if err := sleep(ctx, a.backoff(attempts)); err != nil {
				return zero, err
			}
		}
	}
}

// backoff returns the delay before the given retry attempt: exponential from
// the base, bounded by the cap, with up to 50% additive jitter
func (a *Agent[K, V]) backoff(attempt int) time.Duration {
	delay := a.opts.BackoffBase << (attempt - 1)
	if delay > a.opts.BackoffCap || delay <= 0 {
		delay = a.opts.BackoffCap
	}
	return delay + time.Duration(rand.Int63n(int64(delay)/2+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
