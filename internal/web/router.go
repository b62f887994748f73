// Package web assembles the HTTP surface: the page table behind the
// gateway, account endpoints, health and metrics.
package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AlexKimmel/nightout/internal/gateway"
	"github.com/AlexKimmel/nightout/internal/obs"
	"github.com/AlexKimmel/nightout/internal/pages"
	"github.com/AlexKimmel/nightout/internal/routing"
)

type Deps struct {
	Table    routing.Table
	Gateway  *gateway.Gateway
	Pages    *pages.Renderer
	Accounts *Accounts

	Metrics     *obs.Metrics // optional
	MetricsPath string
	StaticDir   string // optional
	CSP         string // empty means gateway.DefaultCSP
	Version     string
}

// Account endpoints live under the rate-limited prefix but need no session.
var accountRoutes = []routing.Route{
	{ID: "login-submit", Method: http.MethodPost, Path: routing.APIPrefix + "/login", RequiresRateLimit: true, Browser: true},
	{ID: "register-submit", Method: http.MethodPost, Path: routing.APIPrefix + "/register", RequiresRateLimit: true, Browser: true},
	{ID: "logout", Method: http.MethodGet, Path: routing.APIPrefix + "/logout", RequiresRateLimit: true, Browser: true},
}

var unmatchedRoute = routing.Route{ID: "unmatched", RequiresRateLimit: true}

// NewRouter checks the page table and mounts it. Every table row gets
// exactly the checks it declares.
func NewRouter(d Deps) (http.Handler, error) {
	if err := d.Table.Validate(routing.APIPrefix); err != nil {
		return nil, err
	}
	for _, rt := range d.Table {
		if !d.Pages.Has(rt.ContentKey) {
			return nil, fmt.Errorf("route %q: no page %q", rt.ID, rt.ContentKey)
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(gateway.SecurityHeaders(d.CSP))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}))

	skip := map[string]struct{}{"/health": {}, "/version": {}}
	if d.Metrics != nil && d.MetricsPath != "" && d.MetricsPath != "-" {
		skip[d.MetricsPath] = struct{}{}
		r.Use(d.Metrics.Middleware(skip))
		r.Method(http.MethodGet, d.MetricsPath, d.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(d.Version))
	})

	table := append(routing.Table(nil), d.Table...)
	for i := range table {
		rt := &table[i]
		r.Method(rt.MethodOrGet(), rt.Path, gateway.Chain(
			d.Pages.Handler(rt.ContentKey),
			gateway.Tag(rt),
			d.Gateway.Protect(gateway.ChecksFor(*rt)),
		))
	}

	if d.Accounts != nil {
		handlers := map[string]http.HandlerFunc{
			"login-submit":    d.Accounts.Login,
			"register-submit": d.Accounts.Register,
			"logout":          d.Accounts.Logout,
		}
		for i := range accountRoutes {
			rt := &accountRoutes[i]
			r.Method(rt.MethodOrGet(), rt.Path, gateway.Chain(
				handlers[rt.ID],
				gateway.Tag(rt),
				d.Gateway.Protect(gateway.ChecksFor(*rt)),
			))
		}
	}

	var static http.Handler = http.HandlerFunc(http.NotFound)
	if d.StaticDir != "" {
		static = http.FileServer(staticFS{root: http.Dir(d.StaticDir)})
	}
	r.NotFound(apiFallback(d.Gateway, http.StatusNotFound, static).ServeHTTP)
	r.MethodNotAllowed(apiFallback(d.Gateway, http.StatusMethodNotAllowed, nil).ServeHTTP)
	return r, nil
}

// apiFallback answers unmatched requests. Those under the API prefix still
// count against the client's window; the rest go to other, or get status
// when other is nil.
func apiFallback(gw *gateway.Gateway, status int, other http.Handler) http.Handler {
	reject := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(status), status)
	})
	if other == nil {
		other = reject
	}
	limited := gateway.Chain(reject,
		gateway.Tag(&unmatchedRoute),
		gw.Protect(gateway.ChecksFor(unmatchedRoute)),
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routing.APIPrefix || strings.HasPrefix(r.URL.Path, routing.APIPrefix+"/") {
			limited.ServeHTTP(w, r)
			return
		}
		other.ServeHTTP(w, r)
	})
}
