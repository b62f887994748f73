// Package gateway admits or rejects requests before they reach a page
// handler. A gateway pass is a short list of stages; the first stage that
// rejects ends the pass.
package gateway

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/nightout/internal/auth"
	"github.com/AlexKimmel/nightout/internal/ratelimit"
	"github.com/AlexKimmel/nightout/internal/routing"
)

type Middleware func(http.Handler) http.Handler

// Chain wraps h so the first middleware listed runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type Outcome int

const (
	Admit Outcome = iota
	RejectRateLimited
	RejectUnauthenticated
)

func (o Outcome) String() string {
	switch o {
	case Admit:
		return "admit"
	case RejectRateLimited:
		return "rate_limited"
	case RejectUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Decision is the result of one gateway pass.
type Decision struct {
	Outcome  Outcome
	Identity *auth.Identity     // set on Admit when the auth stage ran
	Limit    ratelimit.Decision // zero when the rate stage did not run
	Reason   auth.Reason
}

func (d Decision) limited() bool { return d.Limit.Limit > 0 }

// Stage inspects a request and returns its decision together with the
// request the next stage should see.
type Stage func(r *http.Request) (Decision, *http.Request)

// Run sequences stages and stops at the first rejection.
func Run(r *http.Request, stages ...Stage) (Decision, *http.Request) {
	acc := Decision{Outcome: Admit}
	for _, stage := range stages {
		d, next := stage(r)
		r = next
		if d.limited() {
			acc.Limit = d.Limit
		}
		if d.Identity != nil {
			acc.Identity = d.Identity
		}
		acc.Outcome = d.Outcome
		acc.Reason = d.Reason
		if d.Outcome != Admit {
			return acc, r
		}
	}
	return acc, r
}

// Checks selects the stages a route goes through.
type Checks struct {
	RateLimit bool
	Auth      bool
	Browser   bool
}

// ChecksFor maps a route table row to its checks.
func ChecksFor(rt routing.Route) Checks {
	return Checks{RateLimit: rt.RequiresRateLimit, Auth: rt.RequiresAuth, Browser: rt.Browser}
}

// Hooks receive gateway events, typically for metrics.
type Hooks struct {
	OnDecision         func(routeID string, o Outcome)
	OnLimiterError     func(routeID string)
	OnStoreUnavailable func()
}

type Options struct {
	Limiter  ratelimit.Store
	ClientID ratelimit.KeyFunc
	Verifier Verifier
	Hooks    Hooks
	// LoginPath receives browser redirects for unauthenticated requests.
	LoginPath string
	Now       func() time.Time
}

// Verifier is satisfied by *auth.Verifier.
type Verifier interface {
	Verify(r *http.Request) auth.Result
}

type Gateway struct {
	limiter   ratelimit.Store
	clientID  ratelimit.KeyFunc
	verifier  Verifier
	hooks     Hooks
	loginPath string
	now       func() time.Time
}

func New(opts Options) *Gateway {
	g := &Gateway{
		limiter:   opts.Limiter,
		clientID:  opts.ClientID,
		verifier:  opts.Verifier,
		hooks:     opts.Hooks,
		loginPath: opts.LoginPath,
		now:       opts.Now,
	}
	if g.clientID == nil {
		g.clientID = ratelimit.ClientID(false)
	}
	if g.loginPath == "" {
		g.loginPath = "/"
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Stages returns the ordered stage list for the given checks: the limiter
// always runs before the verifier.
func (g *Gateway) Stages(c Checks) []Stage {
	var stages []Stage
	if c.RateLimit && g.limiter != nil {
		stages = append(stages, g.RateStage())
	}
	if c.Auth {
		if g.verifier == nil {
			panic("gateway: auth check requested without a verifier")
		}
		stages = append(stages, g.AuthStage())
	}
	return stages
}

// Protect returns the middleware for one route. It runs exactly one gateway
// pass per request and either rejects or calls next with the identity
// attached to the request context.
func (g *Gateway) Protect(c Checks) Middleware {
	stages := g.Stages(c)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, r := Run(r, stages...)

			if d.limited() {
				writeLimitHeaders(w, d.Limit)
			}
			if g.hooks.OnDecision != nil {
				g.hooks.OnDecision(routeID(r), d.Outcome)
			}

			switch d.Outcome {
			case RejectRateLimited:
				writeRateLimited(w, d.Limit, g.now())
				return
			case RejectUnauthenticated:
				if c.Browser {
					redirectToLogin(w, r, g.loginPath)
				} else {
					writeJSON(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				}
				return
			}

			if r.Context().Err() != nil {
				hlog.FromRequest(r).Debug().Msg("client gone before handler ran")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func routeID(r *http.Request) string {
	if rt, ok := routing.RouteFrom(r); ok && rt.ID != "" {
		return rt.ID
	}
	return "unknown"
}
