package cache

import (
	"fmt"
	"sync"
	"time"
)

// Limit is a fixed-window request budget for one external service.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultLimits returns the budgets for the external services the pipeline talks to.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		"google":    {MaxRequests: 100, Window: 24 * time.Hour},
		"brave":     {MaxRequests: 2000, Window: 30 * 24 * time.Hour},
		"wikipedia": {MaxRequests: 200, Window: time.Minute},
		"reddit":    {MaxRequests: 60, Window: time.Minute},
		"medium":    {MaxRequests: 30, Window: time.Minute},
		"substack":  {MaxRequests: 30, Window: time.Minute},
	}
}

// RateLimitError is returned by Limiter.Check when a service's budget is spent.
type RateLimitError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Service, e.RetryAfter.Round(time.Second))
}

type window struct {
	start time.Time
	count int
}

// Limiter gates requests per service key with a fixed window counter.
// It is safe for concurrent use from multiple goroutines.
type Limiter struct {
	limits  map[string]Limit
	now     func() time.Time
	windows sync.Map // map[string]*window
	mu      sync.Map // map[string]*sync.Mutex - per-service locks
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock overrides the time source.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a Limiter for the given per-service budgets.
// Services without an entry are never limited.
func NewLimiter(limits map[string]Limit, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		limits: make(map[string]Limit, len(limits)),
		now:    time.Now,
	}
	for k, v := range limits {
		l.limits[k] = v
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records one request against service and reports whether it may proceed.
// A spent budget is reported as a *RateLimitError carrying the remaining wait.
func (l *Limiter) Check(service string) error {
	limit, ok := l.limits[service]
	if !ok || limit.MaxRequests <= 0 {
		return nil
	}

	muI, _ := l.mu.LoadOrStore(service, &sync.Mutex{})
	mu, ok := muI.(*sync.Mutex)
	if !ok {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	now := l.now()
	wI, found := l.windows.Load(service)
	w, _ := wI.(*window) //nolint:errcheck // nil on miss is handled below
	if !found || w == nil || now.Sub(w.start) > limit.Window {
		l.windows.Store(service, &window{start: now, count: 1})
		return nil
	}

	if w.count+1 > limit.MaxRequests {
		return &RateLimitError{Service: service, RetryAfter: limit.Window - now.Sub(w.start)}
	}
	w.count++
	return nil
}

// Remaining returns how many requests service may still make in its current window.
// Unlimited services report -1.
func (l *Limiter) Remaining(service string) int {
	limit, ok := l.limits[service]
	if !ok || limit.MaxRequests <= 0 {
		return -1
	}

	muI, _ := l.mu.LoadOrStore(service, &sync.Mutex{})
	mu, ok := muI.(*sync.Mutex)
	if !ok {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()

	wI, found := l.windows.Load(service)
	w, _ := wI.(*window) //nolint:errcheck // nil on miss is handled below
	if !found || w == nil || l.now().Sub(w.start) > limit.Window {
		return limit.MaxRequests
	}
	return limit.MaxRequests - w.count
}
