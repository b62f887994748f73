package gateway

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/nightout/internal/auth"
)

// LoginRequiredMessage is shown on the login page after a rejected visit.
// Every unauthenticated reason gets the same text.
const LoginRequiredMessage = "Please log in to continue"

// AuthStage verifies the session and attaches the identity to the request
// context. The stale cookie is left in place on rejection.
func (g *Gateway) AuthStage() Stage {
	return func(r *http.Request) (Decision, *http.Request) {
		res := g.verifier.Verify(r)
		if res.Authenticated() {
			return Decision{Outcome: Admit, Identity: res.Identity}, r.WithContext(auth.WithIdentity(r.Context(), res.Identity))
		}

		logger := hlog.FromRequest(r)
		if res.Reason == auth.ReasonStoreUnavailable {
			logger.Warn().Err(res.Err).Msg("credential store unavailable, rejecting session")
			if g.hooks.OnStoreUnavailable != nil {
				g.hooks.OnStoreUnavailable()
			}
		} else {
			logger.Debug().Stringer("reason", res.Reason).Msg("unauthenticated")
		}
		return Decision{Outcome: RejectUnauthenticated, Reason: res.Reason}, r
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	q := url.Values{"error": {LoginRequiredMessage}}
	http.Redirect(w, r, loginPath+"?"+q.Encode(), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":{"code":"` + errCode + `","message":"` + msg + `"}}`))
}
