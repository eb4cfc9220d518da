package strategies

import (
	"context"
	"fmt"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/auth"
	"github.com/avoronov/secretwall/internal/server/models"
	"github.com/avoronov/secretwall/internal/server/repositories/users"
)

// FederatedStrategy resolves validated provider assertions to users via
// atomic find-or-create. A returning user's record is never mutated by a
// login; a first login creates an account with the federated id only.
type FederatedStrategy struct {
	repo     users.Repository
	verifier auth.Verifier
	logger   logging.Logger
}

func NewFederatedStrategy(repo users.Repository, verifier auth.Verifier, logger logging.Logger) *FederatedStrategy {
	return &FederatedStrategy{
		repo:     repo,
		verifier: verifier,
		logger:   logger.With("module", "federated_strategy"),
	}
}

func (s *FederatedStrategy) Authenticate(ctx context.Context, assertion Assertion) (*models.User, error) {
	a, ok := assertion.(FederatedAssertion)
	if !ok {
		return nil, common.ErrProviderAssertion
	}

	// Validation comes first: no find-or-create on an unverified token.
	claim, err := s.verifier.Verify(a.IDToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.UpsertFederated(ctx, claim.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("federated upsert: %w", err)
	}

	// Only the provider-scoped id reaches the log, never the profile.
	s.logger.Info(ctx, "federated login", "provider_user_id", claim.ProviderUserID, "user_id", user.ID)
	return user, nil
}
