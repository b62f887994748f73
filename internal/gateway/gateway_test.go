package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexKimmel/nightout/internal/auth"
	"github.com/AlexKimmel/nightout/internal/ratelimit"
	"github.com/AlexKimmel/nightout/internal/ratelimit/memory"
	"github.com/AlexKimmel/nightout/internal/routing"
	"github.com/AlexKimmel/nightout/internal/users"
)

type finder map[string]*users.User

func (f finder) Lookup(_ context.Context, id string) (*users.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

type failingLimiter struct{}

func (failingLimiter) Admit(context.Context, string, time.Time) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}
func (failingLimiter) Close() error { return nil }

type fixture struct {
	gw      *Gateway
	tokens  *auth.Tokens
	limiter *memory.Store
	calls   int
	seen    *auth.Identity
	events  []Outcome
}

func newFixture(t *testing.T, p ratelimit.Policy) *fixture {
	t.Helper()
	f := &fixture{}
	f.tokens = auth.NewTokens("secret", time.Hour)
	f.limiter = memory.New(p)
	verifier := auth.NewVerifier(f.tokens, finder{
		"u1": {ID: "u1", Name: "Ansh", Email: "ansh@example.com"},
	}, auth.Cookie{}, time.Second)

	f.gw = New(Options{
		Limiter:  f.limiter,
		Verifier: verifier,
		Hooks: Hooks{
			OnDecision: func(_ string, o Outcome) { f.events = append(f.events, o) },
		},
	})
	return f
}

func (f *fixture) handler(c Checks) http.Handler {
	return f.gw.Protect(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls++
		f.seen, _ = auth.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(userID)
	require.NoError(t, err)
	return tok
}

func get(h http.Handler, path, token, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example"+path, nil)
	r.RemoteAddr = remote
	if token != "" {
		r.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

var protected = Checks{RateLimit: true, Auth: true, Browser: true}

func TestProtect_HundredRequestsThenRateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.Policy{Window: 15 * time.Minute, Max: 100})
	h := f.handler(protected)
	tok := f.token(t, "u1")

	for i := 0; i < 100; i++ {
		w := get(h, "/api/dashboard", tok, "10.0.0.1:1234")
		require.Equalf(t, http.StatusOK, w.Code, "request %d", i+1)
	}
	require.Equal(t, 100, f.calls)

	w := get(h, "/api/dashboard", tok, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, RateLimitMessage, w.Body.String())
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, 100, f.calls, "handler must not run once limited")

	w = get(h, "/api/dashboard", tok, "10.0.0.2:1234")
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own window")
}

func TestProtect_RateLimitRunsBeforeAuth(t *testing.T) {
	f := newFixture(t, ratelimit.Policy{Window: time.Minute, Max: 1})
	h := f.handler(protected)

	w := get(h, "/api/team", "", "10.0.0.1:1")
	assert.Equal(t, http.StatusFound, w.Code)

	w = get(h, "/api/team", "", "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, []Outcome{RejectUnauthenticated, RejectRateLimited}, f.events)
}

func TestProtect_NoCookieRedirectsToLogin(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicy())
	h := f.handler(protected)

	w := get(h, "/api/team", "", "10.0.0.1:1")
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	assert.Equal(t, LoginRequiredMessage, loc.Query().Get("error"))
	assert.Equal(t, 0, f.calls)
	assert.Empty(t, w.Header().Values("Set-Cookie"), "stale cookies are not cleared")
}

func TestProtect_ExpiredTokenSameAsNoToken(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicy())
	h := f.handler(protected)

	past := time.Now().Add(-time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(past),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	withExpired := get(h, "/api/reserve-table", tok, "10.0.0.1:1")
	without := get(h, "/api/reserve-table", "", "10.0.0.1:1")

	assert.Equal(t, without.Code, withExpired.Code)
	assert.Equal(t, without.Header().Get("Location"), withExpired.Header().Get("Location"))
	assert.Equal(t, 0, f.calls)
}

func TestProtect_APIRouteGets401(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicy())
	h := f.handler(Checks{RateLimit: true, Auth: true})

	w := get(h, "/api/dashboard", "garbage", "10.0.0.1:1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":{"code":"unauthenticated","message":"Authentication required"}}`, w.Body.String())
}

func TestProtect_AttachesIdentity(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicy())
	h := f.handler(protected)

	w := get(h, "/api/bar", f.token(t, "u1"), "10.0.0.1:1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, "u1", f.seen.UserID)
	assert.Equal(t, "Ansh", f.seen.Name)
}

func TestProtect_DanglingSessionRejected(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicy())
	h := f.handler(protected)

	w := get(h, "/api/bar", f.token(t, "gone"), "10.0.0.1:1")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, 0, f.calls)
}

func TestProtect_PublicRouteSkipsAuth(t *testing.T) {
	f := newFixture(t, ratelimit.Policy{Window: time.Minute, Max: 2})
	h := f.handler(Checks{RateLimit: true, Browser: true})

	assert.Equal(t, http.StatusOK, get(h, "/api/faq", "", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/faq", "", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/api/faq", "", "10.0.0.1:1").Code)
}

func TestProtect_UnlimitedRouteNeverCounts(t *testing.T) {
	f := newFixture(t, ratelimit.Policy{Window: time.Minute, Max: 1})
	h := f.handler(Checks{Browser: true})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(h, "/", "", "10.0.0.1:1").Code)
	}
	d, err := f.limiter.Admit(context.Background(), "10.0.0.1", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Count, "earlier requests must not have been counted")
}

func TestProtect_LimiterErrorLetsRequestThrough(t *testing.T) {
	var limiterErrors int
	gw := New(Options{
		Limiter: failingLimiter{},
		Hooks:   Hooks{OnLimiterError: func(string) { limiterErrors++ }},
	})
	h := gw.Protect(Checks{RateLimit: true})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := get(h, "/api/faq", "", "10.0.0.1:1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, limiterErrors)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestProtect_DisconnectedClientSkipsHandler(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicy())
	h := f.handler(protected)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodGet, "http://example/api/bar", nil).WithContext(ctx)
	r.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: f.token(t, "u1")})
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, 0, f.calls)
}

func TestRun_StopsAtFirstRejection(t *testing.T) {
	var ran []string
	stage := func(name string, o Outcome) Stage {
		return func(r *http.Request) (Decision, *http.Request) {
			ran = append(ran, name)
			return Decision{Outcome: o}, r
		}
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	d, _ := Run(r, stage("a", Admit), stage("b", RejectRateLimited), stage("c", Admit))
	assert.Equal(t, RejectRateLimited, d.Outcome)
	assert.Equal(t, []string{"a", "b"}, ran)

	d, _ = Run(r)
	assert.Equal(t, Admit, d.Outcome)
}

func TestChainAndTag(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	rt := &routing.Route{ID: "team"}
	var got *routing.Route
	h := Chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = routing.RouteFrom(r)
	}), mw("outer"), Tag(rt), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Same(t, rt, got)
}
