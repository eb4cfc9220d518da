// Package users implements the user store: lookups by id, username, and
// federated id, local account creation, and the atomic federated
// find-or-create.
package users

import (
	"context"

	"github.com/avoronov/secretwall/internal/server/models"
)

// Repository is the user store contract. Lookups return common.ErrNotFound
// when no record matches; any other error is a storage failure and must not
// be treated as an authentication outcome.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)

	FindByUsername(ctx context.Context, username string) (*models.User, error)

	FindByFederatedID(ctx context.Context, federatedID string) (*models.User, error)

	// CreateLocal inserts a new local account. Username uniqueness is
	// enforced by the store itself; a duplicate yields
	// common.ErrDuplicateUsername without a check-then-insert race.
	CreateLocal(ctx context.Context, username string, hash, salt []byte) (*models.User, error)

	// UpsertFederated returns the user whose FederatedID matches
	// providerUserID, creating it atomically if absent. Two concurrent
	// calls with the same id must never create two records, and an
	// existing record is never mutated.
	UpsertFederated(ctx context.Context, providerUserID string) (*models.User, error)

	// Save updates the mutable fields of an existing user (idempotent).
	Save(ctx context.Context, user *models.User) error

	// ListWithSecrets returns the users that have submitted a secret.
	ListWithSecrets(ctx context.Context) ([]*models.User, error)
}
