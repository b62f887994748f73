package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/nightout/internal/ratelimit"
)

const RateLimitMessage = "Too many requests from this IP, please try again later."

// RateStage counts the request against its client's window. A failing
// counter backend is logged and lets the request through; the auth stage
// still guards protected routes.
func (g *Gateway) RateStage() Stage {
	return func(r *http.Request) (Decision, *http.Request) {
		key := g.clientID(r)

		dec, err := g.limiter.Admit(r.Context(), key, g.now())
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("client", key).Msg("rate limiter unavailable")
			if g.hooks.OnLimiterError != nil {
				g.hooks.OnLimiterError(routeID(r))
			}
			return Decision{Outcome: Admit}, r
		}

		if !dec.Allowed {
			hlog.FromRequest(r).Info().
				Str("client", key).
				Int64("count", dec.Count).
				Int("limit", dec.Limit).
				Msg("rate limited")
			return Decision{Outcome: RejectRateLimited, Limit: dec}, r
		}
		return Decision{Outcome: Admit, Limit: dec}, r
	}
}

func writeLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func writeRateLimited(w http.ResponseWriter, d ratelimit.Decision, now time.Time) {
	w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter(now)/time.Second)))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(RateLimitMessage))
}
