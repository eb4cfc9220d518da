package strategies

import (
	"context"
	"errors"
	"fmt"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/hash"
	"github.com/avoronov/secretwall/internal/server/models"
	"github.com/avoronov/secretwall/internal/server/repositories/users"
)

// LocalStrategy authenticates username/password assertions against stored
// salted digests, and registers new local accounts.
type LocalStrategy struct {
	repo   users.Repository
	logger logging.Logger
}

func NewLocalStrategy(repo users.Repository, logger logging.Logger) *LocalStrategy {
	return &LocalStrategy{
		repo:   repo,
		logger: logger.With("module", "local_strategy"),
	}
}

func (s *LocalStrategy) Authenticate(ctx context.Context, assertion Assertion) (*models.User, error) {
	a, ok := assertion.(LocalAssertion)
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, a.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if !hash.Verify(a.Password, user.PasswordHash, user.PasswordSalt) {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// Register creates a new local account. Username uniqueness is enforced by
// the store, not checked here first, so concurrent registrations of the
// same name cannot both succeed.
func (s *LocalStrategy) Register(ctx context.Context, username, password string) (*models.User, error) {
	digest, salt := hash.Hash(password)

	user, err := s.repo.CreateLocal(ctx, username, digest, salt)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info(ctx, "registered local user", "user_id", user.ID)
	return user, nil
}
