package memory

import (
	"context"
	"sync"
	"time"

	"github.com/AlexKimmel/nightout/internal/ratelimit"
)

type window struct {
	count    int64
	start    time.Time
	lastSeen time.Time
}

// Store keeps fixed windows in process memory. A single mutex guards the
// map so the increment and the reset check happen as one step.
type Store struct {
	mu        sync.Mutex
	policy    ratelimit.Policy
	retention time.Duration
	windows   map[string]*window
}

type Option func(*Store)

// WithRetention sets how long an expired window may sit idle before Sweep
// drops it. Defaults to the window duration.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

func New(p ratelimit.Policy, opts ...Option) *Store {
	s := &Store{
		policy:    p,
		retention: p.Window,
		windows:   make(map[string]*window),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) Admit(_ context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= s.policy.Window {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++
	w.lastSeen = now

	return s.policy.Evaluate(w.count, w.start), nil
}

// Sweep drops windows that have rolled over and seen no traffic for the
// retention period. Dropping such a window is the same as resetting it.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, w := range s.windows {
		if now.Sub(w.start) >= s.policy.Window && now.Sub(w.lastSeen) >= s.retention {
			delete(s.windows, k)
			n++
		}
	}
	return n
}

// size reports the number of tracked clients.
func (s *Store) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// StartJanitor sweeps every interval until ctx is done.
func (s *Store) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.Sweep(now)
			}
		}
	}()
}
