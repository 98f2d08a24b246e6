package ratelimit

import (
	"context"
	"time"

	"github.com/dailymemedigest/memefactory/pkg/cache"
)

// Decision is the outcome of one request.
type Decision struct {
	Allowed bool
	// Remaining is how many more requests fit in the current window.
	Remaining int
	// RetryAfter is how long until the oldest counted request leaves the
	// window. Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter admits or rejects requests from a client.
type Limiter interface {
	// Allow records a request from client under scope if it fits.
	Allow(ctx context.Context, scope, client string) (Decision, error)
}

// Rule is a limit of Limit requests in any Window-long span. [Memory] and
// [Redis] both enforce it as a sliding window over request timestamps; a
// request is admitted once the oldest counted one is Window old.
type Rule struct {
	Limit  int
	Window time.Duration
}

// PerMinute returns a rule of n requests a minute.
func PerMinute(n int) Rule { return Rule{Limit: n, Window: time.Minute} }

// Unlimited reports whether the rule admits everything.
func (r Rule) Unlimited() bool { return r.Limit <= 0 || r.Window <= 0 }

type config struct {
	keyer cache.Keyer
	now   func() time.Time
}

// Option configures a limiter.
type Option func(*config)

// WithKeyer sets how bucket keys are built.
func WithKeyer(k cache.Keyer) Option {
	return func(c *config) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

func newConfig(opts []Option) config {
	c := config{keyer: cache.NewDefaultKeyer(), now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
