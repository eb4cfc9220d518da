// Package secrets implements the secret submission and listing feature that
// sits behind the route guard. It only ever touches the submitting user's
// own record.
package secrets

import (
	"context"
	"fmt"

	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/repositories/users"
)

type Service struct {
	repo   users.Repository
	logger logging.Logger
}

func NewService(repo users.Repository, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With("module", "secrets"),
	}
}

// Submit stores secret on the authenticated user's record, replacing any
// previous one.
func (s *Service) Submit(ctx context.Context, userID, secret string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}

	user.Secret = secret
	if err := s.repo.Save(ctx, user); err != nil {
		return fmt.Errorf("save secret: %w", err)
	}

	s.logger.Info(ctx, "secret submitted", "user_id", userID)
	return nil
}

// ListShared returns the secrets of every user who has submitted one. The
// listing is anonymous: only the secret text leaves this boundary.
func (s *Service) ListShared(ctx context.Context) ([]string, error) {
	list, err := s.repo.ListWithSecrets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}

	out := make([]string, 0, len(list))
	for _, u := range list {
		out = append(out, u.Secret)
	}
	return out, nil
}
