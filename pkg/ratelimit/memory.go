package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process sliding-window limiter.
type Memory struct {
	rule  Rule
	cfg   config
	mu    sync.Mutex
	hits  map[string][]time.Time
	calls int
}

// NewMemory returns an in-memory limiter.
func NewMemory(rule Rule, opts ...Option) *Memory {
	return &Memory{rule: rule, cfg: newConfig(opts), hits: make(map[string][]time.Time)}
}

// Allow implements [Limiter].
func (m *Memory) Allow(_ context.Context, scope, client string) (Decision, error) {
	if m.rule.Unlimited() {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	key := m.cfg.keyer.RateKey(scope, client)
	now := m.cfg.now()
	cutoff := now.Add(-m.rule.Window)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls%1024 == 0 {
		m.sweep(cutoff)
	}

	hits := prune(m.hits[key], cutoff)
	if len(hits) >= m.rule.Limit {
		m.hits[key] = hits
		return Decision{RetryAfter: hits[0].Sub(cutoff)}, nil
	}
	m.hits[key] = append(hits, now)
	return Decision{Allowed: true, Remaining: m.rule.Limit - len(hits) - 1}, nil
}

// Len returns the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// sweep drops clients with no request inside the window.
func (m *Memory) sweep(cutoff time.Time) {
	for k, hits := range m.hits {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(m.hits, k)
		} else {
			m.hits[k] = hits
		}
	}
}

// prune drops timestamps at or before cutoff. hits is in time order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

var _ Limiter = (*Memory)(nil)
