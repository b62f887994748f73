package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultWindow = 15 * time.Minute
	DefaultMax    = 100
)

// Policy is a fixed window: at most Max requests per Window for one client.
type Policy struct {
	Window time.Duration
	Max    int
}

func DefaultPolicy() Policy {
	return Policy{Window: DefaultWindow, Max: DefaultMax}
}

type Decision struct {
	Allowed   bool
	Limit     int       // requests allowed per window
	Remaining int       // requests left in this window (min 0)
	Count     int64     // requests seen in this window, rejected ones included
	ResetAt   time.Time // when the window rolls over
}

// RetryAfter is the wait until the window resets, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return wait.Truncate(time.Second) + ceilSecond(wait)
}

func ceilSecond(d time.Duration) time.Duration {
	if d%time.Second == 0 {
		return 0
	}
	return time.Second
}

// Evaluate turns the count of the window starting at start into a decision.
func (p Policy) Evaluate(count int64, start time.Time) Decision {
	remaining := p.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(p.Max),
		Limit:     p.Max,
		Remaining: remaining,
		Count:     count,
		ResetAt:   start.Add(p.Window),
	}
}

// Store counts requests per client key. Implementations must be safe for
// concurrent use; the in-process and shared-cache stores are interchangeable.
type Store interface {
	Admit(ctx context.Context, key string, now time.Time) (Decision, error)
	Close() error
}
