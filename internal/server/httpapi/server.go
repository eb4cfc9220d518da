// Package httpapi exposes the authentication routes over HTTP with the
// session token carried in an HttpOnly cookie.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/gateway"
	"github.com/avoronov/secretwall/internal/server/secrets"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	address  string
	gateway  *gateway.Gateway
	secrets  *secrets.Service
	gatherer prometheus.Gatherer
	logger   logging.Logger
}

func NewServer(address string, gw *gateway.Gateway, sec *secrets.Service,
	gatherer prometheus.Gatherer, logger logging.Logger) *Server {
	return &Server{
		address:  address,
		gateway:  gw,
		secrets:  sec,
		gatherer: gatherer,
		logger:   logger.With("module", "http_server"),
	}
}

// Routes assembles the router. Protected routes sit behind the requireAuth
// guard; everything else is public.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/ping", s.handlePing)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Get("/auth/provider/callback", s.handleFederatedCallback)
	r.Get("/logout", s.handleLogout)
	r.Get("/secrets", s.handleSecrets)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/submit", s.handleSubmitForm)
		r.Post("/submit", s.handleSubmit)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
