// Package pages renders the site's HTML pages from embedded templates.
package pages

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/nightout/internal/auth"
)

//go:embed templates/*.html
var files embed.FS

var ErrUnknownPage = errors.New("unknown page")

// View is the data every template receives. Page carries the page-specific
// payload.
type View struct {
	Title   string
	User    *auth.Identity
	Error   string
	Success string
	Page    any
}

type page struct {
	title   string
	tmpl    *template.Template
	payload any
}

type Renderer struct {
	pages map[string]page
}

type entry struct {
	file    string
	title   string
	payload any
}

func catalog() map[string]entry {
	all := append(append([]Venue{}, chdBars...), ldhBars...)
	c := map[string]entry{
		"login":    {file: "login.html", title: "Log in"},
		"register": {file: "register.html", title: "Register"},
		"dashboard": {file: "dashboard.html", title: "Dashboard", payload: struct {
			InstaImages []string
		}{instaImages}},
		"bar": {file: "bar.html", title: "Bars", payload: struct {
			Chandigarh, Ludhiana []Venue
		}{chdBars, ldhBars}},
		"reserve-table": {file: "reserve-table.html", title: "Reserve a table", payload: struct {
			Venues []Venue
		}{all}},
		"team": {file: "team.html", title: "Team", payload: struct {
			Team []TeamMember
		}{team}},
	}
	for key, v := range venues {
		c[key] = entry{file: "venue.html", title: v.Title, payload: v}
	}
	for key, in := range info {
		c[key] = entry{file: "info.html", title: in.Heading, payload: in}
	}
	return c
}

// New parses every page against the shared layout.
func New() (*Renderer, error) {
	rn := &Renderer{pages: make(map[string]page)}
	for key, e := range catalog() {
		t, err := template.New(key).ParseFS(files, "templates/layout.html", "templates/"+e.file)
		if err != nil {
			return nil, fmt.Errorf("parse page %q: %w", key, err)
		}
		rn.pages[key] = page{title: e.title, tmpl: t, payload: e.payload}
	}
	return rn, nil
}

func (rn *Renderer) Has(key string) bool {
	_, ok := rn.pages[key]
	return ok
}

func (rn *Renderer) keys() []string {
	keys := make([]string, 0, len(rn.pages))
	for k := range rn.pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render writes the page for key. Title and Page default to the page's own
// values when v leaves them empty. Nothing is written when rendering fails.
func (rn *Renderer) Render(w http.ResponseWriter, status int, key string, v View) error {
	p, ok := rn.pages[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, key)
	}
	if v.Title == "" {
		v.Title = p.title
	}
	if v.Page == nil {
		v.Page = p.payload
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("render %s: %w", key, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Handler serves the page for key with the caller's identity and any
// error/success flash from the query string.
func (rn *Renderer) Handler(key string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := View{
			Error:   r.URL.Query().Get("error"),
			Success: r.URL.Query().Get("success"),
		}
		if id, ok := auth.IdentityFrom(r.Context()); ok {
			v.User = id
		}
		if err := rn.Render(w, http.StatusOK, key, v); err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("page", key).Msg("render failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})
}
