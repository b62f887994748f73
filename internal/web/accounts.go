package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/nightout/internal/auth"
	"github.com/AlexKimmel/nightout/internal/ratelimit"
	"github.com/AlexKimmel/nightout/internal/users"
)

const (
	msgInvalidLogin   = "Invalid email or password"
	msgTryAgain       = "Something went wrong, please try again"
	msgEmailTaken     = "An account with this email already exists"
	msgRegistered     = "Registration successful, please log in"
	msgLoggedOut      = "You have been logged out"
	msgLoginThrottled = "Too many login attempts, please try again later."
)

// Accounts serves registration, login and logout.
type Accounts struct {
	users    *users.Service
	tokens   *auth.Tokens
	cookie   auth.Cookie
	throttle ratelimit.Store
	clientID ratelimit.KeyFunc
	now      func() time.Time
}

type AccountsOptions struct {
	Users  *users.Service
	Tokens *auth.Tokens
	Cookie auth.Cookie
	// Throttle bounds login attempts per client. Nil disables it.
	Throttle ratelimit.Store
	ClientID ratelimit.KeyFunc
}

func NewAccounts(o AccountsOptions) *Accounts {
	a := &Accounts{
		users:    o.Users,
		tokens:   o.Tokens,
		cookie:   o.Cookie,
		throttle: o.Throttle,
		clientID: o.ClientID,
		now:      time.Now,
	}
	if a.clientID == nil {
		a.clientID = ratelimit.ClientID(false)
	}
	return a
}

func (a *Accounts) Login(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	if a.throttle != nil {
		now := a.now()
		dec, err := a.throttle.Admit(r.Context(), a.clientID(r), now)
		if err != nil {
			logger.Error().Err(err).Msg("login throttle unavailable")
		} else if !dec.Allowed {
			logger.Info().Str("client", a.clientID(r)).Msg("login throttled")
			w.Header().Set("Retry-After", strconv.Itoa(int(dec.RetryAfter(now)/time.Second)))
			http.Error(w, msgLoginThrottled, http.StatusTooManyRequests)
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, "/", "error", msgTryAgain)
		return
	}

	u, err := a.users.Authenticate(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		logger.Debug().Msg("login failed")
		redirectWith(w, r, "/", "error", msgInvalidLogin)
		return
	case err != nil:
		logger.Error().Err(err).Msg("login")
		redirectWith(w, r, "/", "error", msgTryAgain)
		return
	}

	token, exp, err := a.tokens.Issue(u.ID)
	if err != nil {
		logger.Error().Err(err).Msg("issue session token")
		redirectWith(w, r, "/", "error", msgTryAgain)
		return
	}
	a.cookie.Set(w, token, exp)
	logger.Info().Str("user_id", u.ID).Msg("logged in")
	http.Redirect(w, r, "/api/dashboard", http.StatusSeeOther)
}

func (a *Accounts) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, "/register", "error", msgTryAgain)
		return
	}

	u, err := a.users.Register(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("email"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		redirectWith(w, r, "/register", "error", msgEmailTaken)
		return
	case errors.Is(err, users.ErrInvalidInput):
		redirectWith(w, r, "/register", "error", userMessage(err))
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("register")
		redirectWith(w, r, "/register", "error", msgTryAgain)
		return
	}

	hlog.FromRequest(r).Info().Str("user_id", u.ID).Msg("registered")
	redirectWith(w, r, "/", "success", msgRegistered)
}

// Logout clears the session cookie. The token itself stays valid until it
// expires.
func (a *Accounts) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookie.Clear(w)
	redirectWith(w, r, "/", "success", msgLoggedOut)
}

func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	q := url.Values{key: {msg}}
	code := http.StatusFound
	if r.Method == http.MethodPost {
		code = http.StatusSeeOther
	}
	http.Redirect(w, r, path+"?"+q.Encode(), code)
}

// userMessage strips the sentinel prefix from a validation error.
func userMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), users.ErrInvalidInput.Error()+": ")
	if msg == "" {
		return msgTryAgain
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
