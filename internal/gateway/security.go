package gateway

import "net/http"

// DefaultCSP allows third-party scripts and https images, and keeps the
// remaining fetch directives on self.
const DefaultCSP = "default-src 'self' *;" +
	"base-uri 'self';" +
	"font-src 'self' https: data:;" +
	"form-action 'self';" +
	"frame-ancestors 'self';" +
	"img-src 'self' https: data:;" +
	"object-src 'none';" +
	"script-src 'self' * 'unsafe-inline';" +
	"script-src-attr 'self' * 'unsafe-inline';" +
	"style-src 'self' https: 'unsafe-inline';" +
	"upgrade-insecure-requests"

// SecurityHeaders sets the Content-Security-Policy on every response.
// An empty csp means DefaultCSP.
func SecurityHeaders(csp string) Middleware {
	if csp == "" {
		csp = DefaultCSP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}
