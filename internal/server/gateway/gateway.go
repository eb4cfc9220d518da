// Package gateway orchestrates authentication: it selects the strategy for
// an incoming assertion, establishes or destroys sessions, and exposes the
// route-guard predicate protected handlers gate on.
//
// The gateway is the recovery boundary for verification failures. Whether an
// account is missing, a password is wrong, or a provider assertion fails,
// callers see the single uniform common.ErrUnauthorized, so the login
// surface cannot be used to enumerate accounts. Storage failures are the
// exception: they propagate as errors and are never downgraded to an
// authentication outcome.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/metrics"
	"github.com/avoronov/secretwall/internal/server/models"
	"github.com/avoronov/secretwall/internal/server/sessions"
	"github.com/avoronov/secretwall/internal/server/strategies"
	"github.com/prometheus/client_golang/prometheus"
)

type Gateway struct {
	local     *strategies.LocalStrategy
	federated *strategies.FederatedStrategy
	sessions  *sessions.Manager
	metrics   *metrics.Metrics
	logger    logging.Logger
}

func New(local *strategies.LocalStrategy, federated *strategies.FederatedStrategy,
	sm *sessions.Manager, m *metrics.Metrics, logger logging.Logger) *Gateway {
	return &Gateway{
		local:     local,
		federated: federated,
		sessions:  sm,
		metrics:   m,
		logger:    logger.With("module", "gateway"),
	}
}

// Register creates a local account and immediately authenticates it: the
// returned token is a live session.
// common.ErrDuplicateUsername passes through so the caller can prompt for
// another name.
func (g *Gateway) Register(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := g.local.Register(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			g.metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, "", common.ErrDuplicateUsername
		}
		g.metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, "", err
	}

	token, err := g.sessions.Establish(ctx, user)
	if err != nil {
		g.metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, "", fmt.Errorf("establish session: %w", err)
	}

	g.metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return user, token, nil
}

// Login verifies a local assertion and establishes a session. The strict
// per-request order is verify, then establish, then return.
func (g *Gateway) Login(ctx context.Context, username, password string) (string, error) {
	assertion := strategies.LocalAssertion{Username: username, Password: password}

	user, err := g.local.Authenticate(ctx, assertion)
	if err != nil {
		return "", g.foldAuthFailure(ctx, g.metrics.Logins, err)
	}

	token, err := g.sessions.Establish(ctx, user)
	if err != nil {
		g.metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return "", fmt.Errorf("establish session: %w", err)
	}

	g.metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return token, nil
}

// FederatedCallback consumes the provider's raw ID token, resolves the
// identity (find-or-create), and establishes a session.
func (g *Gateway) FederatedCallback(ctx context.Context, rawIDToken string) (string, error) {
	assertion := strategies.FederatedAssertion{IDToken: rawIDToken}

	user, err := g.federated.Authenticate(ctx, assertion)
	if err != nil {
		return "", g.foldAuthFailure(ctx, g.metrics.Callbacks, err)
	}

	token, err := g.sessions.Establish(ctx, user)
	if err != nil {
		g.metrics.Callbacks.WithLabelValues(metrics.OutcomeError).Inc()
		return "", fmt.Errorf("establish session: %w", err)
	}

	g.metrics.Callbacks.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return token, nil
}

// Logout destroys the session binding; the user record is untouched.
func (g *Gateway) Logout(token string) {
	g.sessions.Destroy(token)
}

// CurrentUser resolves the session token to a live user.
// common.ErrSessionNotFound means the request is anonymous; any other error
// is a server-side failure.
func (g *Gateway) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	return g.sessions.Resolve(ctx, token)
}

// IsAuthenticated is the route-guard predicate: true iff the token
// deserializes to a live user.
func (g *Gateway) IsAuthenticated(ctx context.Context, token string) bool {
	_, err := g.sessions.Resolve(ctx, token)
	return err == nil
}

// foldAuthFailure maps every verification failure to the uniform
// ErrUnauthorized and lets storage failures through.
func (g *Gateway) foldAuthFailure(ctx context.Context, counter *prometheus.CounterVec, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrProviderAssertion):
		counter.WithLabelValues(metrics.OutcomeRejected).Inc()
		g.logger.Info(ctx, "authentication rejected")
		return common.ErrUnauthorized
	default:
		counter.WithLabelValues(metrics.OutcomeError).Inc()
		g.logger.Error(ctx, "authentication error", "error", err.Error())
		return err
	}
}
