package pages

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexKimmel/nightout/internal/auth"
	"github.com/AlexKimmel/nightout/internal/routing"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	rn, err := New()
	require.NoError(t, err)
	return rn
}

func TestEveryRouteHasAPage(t *testing.T) {
	rn := newRenderer(t)
	for _, rt := range routing.Site() {
		assert.Truef(t, rn.Has(rt.ContentKey), "no page for %s", rt.ContentKey)
	}
}

func TestEveryPageRenders(t *testing.T) {
	rn := newRenderer(t)
	for _, key := range rn.keys() {
		w := httptest.NewRecorder()
		require.NoErrorf(t, rn.Render(w, http.StatusOK, key, View{}), key)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "<main>")
	}
}

func TestRender_UnknownPage(t *testing.T) {
	rn := newRenderer(t)
	w := httptest.NewRecorder()
	err := rn.Render(w, http.StatusOK, "nope", View{})
	assert.ErrorIs(t, err, ErrUnknownPage)
	assert.Empty(t, w.Body.String())
}

func TestHandler_ShowsFlashAndUser(t *testing.T) {
	rn := newRenderer(t)

	r := httptest.NewRequest(http.MethodGet, "/?error=Please+log+in+to+continue", nil)
	w := httptest.NewRecorder()
	rn.Handler("login").ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please log in to continue")

	r = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r = r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{UserID: "u1", Name: "Akhil <b>"}))
	w = httptest.NewRecorder()
	rn.Handler("dashboard").ServeHTTP(w, r)
	body := w.Body.String()
	assert.Contains(t, body, "Akhil &lt;b&gt;")
	assert.Contains(t, body, "/images/food.jpg")
	assert.Contains(t, body, "/api/logout")
}

func TestBarsAndVenues(t *testing.T) {
	rn := newRenderer(t)

	w := httptest.NewRecorder()
	require.NoError(t, rn.Render(w, http.StatusOK, "bar", View{}))
	assert.Contains(t, w.Body.String(), "/api/brewestate")
	assert.Contains(t, w.Body.String(), "/api/baklavi-ldh")

	w = httptest.NewRecorder()
	require.NoError(t, rn.Render(w, http.StatusOK, "romeo-ldh", View{}))
	assert.Contains(t, w.Body.String(), "Romeo Lane")
	assert.Contains(t, w.Body.String(), "Ludhiana")
}
