package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AlexKimmel/nightout/internal/users"
)

const DefaultLookupTimeout = 2 * time.Second

// Reason says why a request is unauthenticated.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMissingToken
	ReasonInvalidToken
	ReasonExpiredToken
	ReasonUnknownUser
	ReasonStoreUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMissingToken:
		return "missing_token"
	case ReasonInvalidToken:
		return "invalid_token"
	case ReasonExpiredToken:
		return "expired_token"
	case ReasonUnknownUser:
		return "unknown_user"
	case ReasonStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Result is either Authenticated (Identity set) or Unauthenticated with a
// Reason. Err carries the store failure behind ReasonStoreUnavailable.
type Result struct {
	Identity *Identity
	Reason   Reason
	Err      error
}

func (r Result) Authenticated() bool { return r.Identity != nil }

// UserFinder resolves the user a session is bound to.
type UserFinder interface {
	Lookup(ctx context.Context, id string) (*users.User, error)
}

type Verifier struct {
	tokens  *Tokens
	users   UserFinder
	cookie  Cookie
	timeout time.Duration
}

func NewVerifier(tokens *Tokens, finder UserFinder, cookie Cookie, lookupTimeout time.Duration) *Verifier {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Verifier{tokens: tokens, users: finder, cookie: cookie, timeout: lookupTimeout}
}

// Verify never fails hard: malformed, expired and dangling sessions, and a
// store that errors or exceeds the lookup timeout, all come back as
// Unauthenticated.
//
// The lookup is detached from request cancellation so a client hanging up
// does not turn into a store error; the caller checks the request context
// afterwards and drops the result.
func (v *Verifier) Verify(r *http.Request) Result {
	raw := v.cookie.Read(r)
	if raw == "" {
		return Result{Reason: ReasonMissingToken}
	}

	claims, err := v.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return Result{Reason: ReasonExpiredToken}
		}
		return Result{Reason: ReasonInvalidToken}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), v.timeout)
	defer cancel()

	u, err := v.lookup(ctx, claims.Subject)
	switch {
	case errors.Is(err, users.ErrNotFound):
		return Result{Reason: ReasonUnknownUser}
	case err != nil:
		return Result{Reason: ReasonStoreUnavailable, Err: err}
	}

	return Result{Identity: &Identity{UserID: u.ID, Name: u.Name, Email: u.Email}}
}

type lookupResult struct {
	user *users.User
	err  error
}

// lookup bounds the store call by ctx even if the store ignores it. A
// panicking store counts as unavailable.
func (v *Verifier) lookup(ctx context.Context, id string) (*users.User, error) {
	ch := make(chan lookupResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- lookupResult{err: fmt.Errorf("user lookup panicked: %v", p)}
			}
		}()
		u, err := v.users.Lookup(ctx, id)
		ch <- lookupResult{user: u, err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil && res.user == nil {
			return nil, users.ErrNotFound
		}
		return res.user, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
