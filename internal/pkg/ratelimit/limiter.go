package ratelimit

import (
	"context"
	"sync"
	"time"

	"nyumbani/internal/pkg/clock"
)

// CounterStore increments a keyed counter within a fixed window and reports
// the resulting count and the window's start. Single-instance deployments
// use the in-process store below; horizontally scaled ones must plug in a
// shared store or the limit is only enforced per instance.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, windowStart time.Time, err error)
}

type Result struct {
	Limited   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is a fixed-window counter: the first request for a key opens a
// window, requests within it increment, and the window is reset (never
// decremented) lazily on the first request after it elapses.
type Limiter struct {
	store  CounterStore
	max    int
	window time.Duration
}

func NewLimiter(store CounterStore, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: max, window: window}
}

func (l *Limiter) Window() time.Duration { return l.window }

func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	count, windowStart, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Result{}, err
	}

	resetAt := windowStart.Add(l.window)
	if count > l.max {
		return Result{Limited: true, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Limited: false, Remaining: l.max - count, ResetAt: resetAt}, nil
}

type entry struct {
	windowStart time.Time
	count       int
}

// MemoryStore is the process-local counter store with lazy expiry: no
// background timer, windows roll over on the next increment after W.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   clock.Clock
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		clock:   clk,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.cleanup(now, window)

	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		e = &entry{windowStart: now, count: 1}
		s.entries[key] = e
		return 1, e.windowStart, nil
	}

	e.count++
	return e.count, e.windowStart, nil
}

// cleanup drops expired entries so abandoned keys do not accumulate.
func (s *MemoryStore) cleanup(now time.Time, window time.Duration) {
	for key, e := range s.entries {
		if now.Sub(e.windowStart) >= window {
			delete(s.entries, key)
		}
	}
}
