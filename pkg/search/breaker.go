package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerOption configures a circuit breaker.
type BreakerOption func(*breakerConfig)

type breakerConfig struct {
	logger   *slog.Logger
	timeout  time.Duration
	failures uint32
}

// WithBreakerLogger sets the logger that records state changes.
func WithBreakerLogger(logger *slog.Logger) BreakerOption {
	return func(c *breakerConfig) { c.logger = logger }
}

// WithTripAfter sets how many consecutive failures open the circuit.
func WithTripAfter(n uint32) BreakerOption {
	return func(c *breakerConfig) { c.failures = n }
}

// WithCooldown sets how long the circuit stays open before a trial request is allowed.
func WithCooldown(d time.Duration) BreakerOption {
	return func(c *breakerConfig) { c.timeout = d }
}

func newBreaker(name string, opts []BreakerOption) *gobreaker.CircuitBreaker {
	cfg := &breakerConfig{logger: slog.Default(), failures: 3, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failures
		},
		// A caller giving up is not evidence that the provider is failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.logger.Warn("circuit breaker state change", "provider", name, "from", from.String(), "to", to.String())
		},
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	v, err := cb.Execute(func() (any, error) { return fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%s: %w", cb.Name(), ErrUnavailable)
	}
	out, _ := v.(T) //nolint:errcheck // nil on error paths
	return out, err
}

type breakerSearcher struct {
	next Searcher
	cb   *gobreaker.CircuitBreaker
}

// Guard wraps s in a circuit breaker. While the circuit is open, Search returns
// ErrUnavailable without calling s.
func Guard(s Searcher, opts ...BreakerOption) Searcher {
	return &breakerSearcher{next: s, cb: newBreaker(s.Name(), opts)}
}

func (b *breakerSearcher) Name() string { return b.next.Name() }

func (b *breakerSearcher) Search(ctx context.Context, q Query) (*Response, error) {
	return execute(b.cb, func() (*Response, error) { return b.next.Search(ctx, q) })
}

type breakerReference struct {
	next Reference
	cb   *gobreaker.CircuitBreaker
}

// GuardReference wraps r in a circuit breaker, like Guard.
func GuardReference(r Reference, opts ...BreakerOption) Reference {
	return &breakerReference{next: r, cb: newBreaker(r.Name(), opts)}
}

func (b *breakerReference) Name() string { return b.next.Name() }

func (b *breakerReference) Lookup(ctx context.Context, name string) (*Article, error) {
	return execute(b.cb, func() (*Article, error) { return b.next.Lookup(ctx, name) })
}
