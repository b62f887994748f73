package gateway

import (
	"net/http"

	"github.com/AlexKimmel/nightout/internal/routing"
)

// Tag attaches the matched route table row to the request so the gateway,
// metrics and handlers can read it.
func Tag(rt *routing.Route) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, routing.WithRoute(r, rt))
		})
	}
}
