// Package tokenbucket is a per-client token bucket on top of x/time/rate.
// It throttles bursts of sensitive actions such as login attempts, where a
// smooth refill suits better than a fixed window.
package tokenbucket

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlexKimmel/nightout/internal/ratelimit"
)

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

var _ ratelimit.Store = (*Store)(nil)

// New refills rps tokens per second up to burst. Buckets idle for idleTTL
// are dropped by Sweep.
func New(rps float64, burst int, idleTTL time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Admit(_ context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	s.mu.Lock()
	ent, ok := s.entries[key]
	if !ok {
		ent = &entry{lim: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = ent
	}
	ent.lastSeen = now
	s.mu.Unlock()

	allowed := ent.lim.AllowN(now, 1)
	tokens := ent.lim.TokensAt(now)

	return ratelimit.Decision{
		Allowed:   allowed,
		Limit:     s.burst,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now.Add(s.untilFull(tokens)),
	}, nil
}

func (s *Store) untilFull(tokens float64) time.Duration {
	need := float64(s.burst) - tokens
	if need <= 0 || s.limit <= 0 {
		return 0
	}
	return time.Duration(need / float64(s.limit) * float64(time.Second))
}

// Sweep drops buckets idle for longer than the idle TTL.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
			n++
		}
	}
	return n
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
