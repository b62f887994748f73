// Package redisstore keeps rate-limit windows in Redis so that several
// server processes share one counter per client.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlexKimmel/nightout/internal/ratelimit"
)

const DefaultPrefix = "nightout:ratelimit:"

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Dial connects and pings with a bounded wait.
func Dial(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

type Store struct {
	client *redis.Client
	policy ratelimit.Policy
	prefix string
}

var _ ratelimit.Store = (*Store)(nil)

type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func New(client *redis.Client, p ratelimit.Policy, opts ...Option) *Store {
	s := &Store{client: client, policy: p, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error {
	return s.client.Close()
}

// admitScript increments the client's counter and starts the window on the
// first hit, in one atomic step. Returns {count, ms left in window}.
var admitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local left = redis.call('PTTL', KEYS[1])
if left <= 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  left = tonumber(ARGV[1])
end
return {n, left}
`)

// Admit counts the request. The key's TTL is the time left in the window,
// and its expiry is the window reset.
func (s *Store) Admit(ctx context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	k := s.prefix + key

	vals, err := admitScript.Run(ctx, s.client, []string{k}, s.policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("redis admit %q: %w", key, err)
	}
	if len(vals) != 2 {
		return ratelimit.Decision{}, fmt.Errorf("redis admit %q: unexpected reply %v", key, vals)
	}

	left := time.Duration(vals[1]) * time.Millisecond
	start := now.Add(left - s.policy.Window)
	return s.policy.Evaluate(vals[0], start), nil
}
