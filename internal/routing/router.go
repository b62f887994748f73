package routing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Route is one row of the static route table. Which gateway checks apply
// to a route is fixed here, never decided at request time.
type Route struct {
	ID                string
	Method            string
	Path              string
	ContentKey        string
	RequiresAuth      bool
	RequiresRateLimit bool
	// Browser routes answer an unauthenticated request with a redirect to
	// the login page instead of a 401.
	Browser bool
}

type Table []Route

// Validate rejects duplicate method+path pairs, rows without content and
// rows under the rate-limited prefix that skip the limiter.
func (t Table) Validate(rateLimitPrefix string) error {
	seen := make(map[string]struct{}, len(t))
	for _, rt := range t {
		if rt.Path == "" || rt.ContentKey == "" {
			return fmt.Errorf("route %q: path and content key are required", rt.ID)
		}
		k := rt.MethodOrGet() + " " + rt.Path
		if _, dup := seen[k]; dup {
			return fmt.Errorf("route %q: duplicate %s", rt.ID, k)
		}
		seen[k] = struct{}{}
		if rateLimitPrefix != "" && underPrefix(rt.Path, rateLimitPrefix) && !rt.RequiresRateLimit {
			return fmt.Errorf("route %q: %s is under %s and must be rate limited", rt.ID, rt.Path, rateLimitPrefix)
		}
	}
	return nil
}

// MethodOrGet returns the route's method, GET when unset.
func (rt Route) MethodOrGet() string {
	if rt.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(rt.Method)
}

// find looks a route up by method and exact path.
func (t Table) find(method, path string) (*Route, bool) {
	m := strings.ToUpper(method)
	for i := range t {
		if t[i].MethodOrGet() == m && t[i].Path == path {
			return &t[i], true
		}
	}
	return nil, false
}

func underPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// --- context helpers ---
type ctxKey int

const keyRoute ctxKey = 0

func WithRoute(r *http.Request, rt *Route) *http.Request {
	ctx := context.WithValue(r.Context(), keyRoute, rt)
	return r.WithContext(ctx)
}

func RouteFrom(r *http.Request) (*Route, bool) {
	rt, ok := r.Context().Value(keyRoute).(*Route)
	return rt, ok && rt != nil
}
