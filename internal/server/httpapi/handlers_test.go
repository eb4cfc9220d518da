package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/auth"
	"github.com/avoronov/secretwall/internal/server/gateway"
	"github.com/avoronov/secretwall/internal/server/metrics"
	"github.com/avoronov/secretwall/internal/server/repositories/users"
	"github.com/avoronov/secretwall/internal/server/secrets"
	"github.com/avoronov/secretwall/internal/server/sessions"
	"github.com/avoronov/secretwall/internal/server/strategies"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var providerSecret = []byte("provider-secret")

func newTestServer(t *testing.T) (*Server, *users.InMemoryRepository) {
	t.Helper()

	repo := users.NewInMemoryRepository()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg := prometheus.NewRegistry()

	sm := sessions.NewManager(repo, 0)
	local := strategies.NewLocalStrategy(repo, logger)
	federated := strategies.NewFederatedStrategy(repo, auth.NewHMACVerifier(providerSecret), logger)
	gw := gateway.New(local, federated, sm, metrics.New(reg), logger)
	sec := secrets.NewService(repo, logger)

	return NewServer(":0", gw, sec, reg, logger), repo
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestRegisterSetsSessionAndRedirects(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	rec := postForm(t, h, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/secrets", rec.Header().Get("Location"))

	c := sessionCookieFrom(t, rec)
	assert.True(t, c.HttpOnly)
}

func TestRegisterDuplicateRedirectsBack(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	postForm(t, h, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)
	rec := postForm(t, h, "/register", url.Values{"username": {"alice"}, "password": {"pw2"}}, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))
}

func TestLoginWrongAndRightPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	postForm(t, h, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)

	wrong := postForm(t, h, "/login", url.Values{"username": {"alice"}, "password": {"bad"}}, nil)
	assert.Equal(t, http.StatusSeeOther, wrong.Code)
	assert.Equal(t, "/login", wrong.Header().Get("Location"))

	// Unknown user gets the identical response.
	ghost := postForm(t, h, "/login", url.Values{"username": {"ghost"}, "password": {"bad"}}, nil)
	assert.Equal(t, wrong.Code, ghost.Code)
	assert.Equal(t, wrong.Header().Get("Location"), ghost.Header().Get("Location"))

	ok := postForm(t, h, "/login", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)
	assert.Equal(t, http.StatusSeeOther, ok.Code)
	assert.Equal(t, "/secrets", ok.Header().Get("Location"))
	sessionCookieFrom(t, ok)
}

func TestGuardRedirectsAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	rec := get(t, h, "/submit", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGuardedSubmitFlow(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.Routes()

	reg := postForm(t, h, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)
	cookie := sessionCookieFrom(t, reg)

	form := get(t, h, "/submit", cookie)
	assert.Equal(t, http.StatusOK, form.Code)

	rec := postForm(t, h, "/submit", url.Values{"secret": {"my secret"}}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/secrets", rec.Header().Get("Location"))

	stored, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "my secret", stored.Secret)

	list := get(t, h, "/secrets", nil)
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "my secret")
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	reg := postForm(t, h, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)
	cookie := sessionCookieFrom(t, reg)

	out := get(t, h, "/logout", cookie)
	assert.Equal(t, http.StatusSeeOther, out.Code)
	assert.Equal(t, "/", out.Header().Get("Location"))

	// The old cookie no longer grants access.
	rec := get(t, h, "/submit", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestFederatedCallback(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.Routes()

	raw, err := auth.MintToken("g-42", "Alice", providerSecret, time.Minute)
	require.NoError(t, err)

	rec := get(t, h, "/auth/provider/callback?assertion="+url.QueryEscape(raw), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/secrets", rec.Header().Get("Location"))
	cookie := sessionCookieFrom(t, rec)

	// The session works against the guard.
	form := get(t, h, "/submit", cookie)
	assert.Equal(t, http.StatusOK, form.Code)

	assert.Equal(t, 1, repo.Count())
}

func TestFederatedCallbackBadAssertion(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.Routes()

	rec := get(t, h, "/auth/provider/callback?assertion=garbage", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 0, repo.Count())
}

func TestPingAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	assert.Equal(t, http.StatusOK, get(t, h, "/ping", nil).Code)

	postForm(t, h, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil)
	m := get(t, h, "/metrics", nil)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "secretwall_registrations_total")
}
