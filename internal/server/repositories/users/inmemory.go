package users

import (
	"context"
	"sync"
	"time"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository is a mutex-guarded map implementation of Repository,
// used in tests and for local development without Postgres. The single
// mutex makes UpsertFederated and CreateLocal atomic with respect to
// concurrent callers, matching the guarantees of the Postgres indexes.
type InMemoryRepository struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	order []string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(u), nil
}

func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(u *models.User) bool { return u.Username == username && username != "" })
}

func (r *InMemoryRepository) FindByFederatedID(ctx context.Context, federatedID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(u *models.User) bool { return u.FederatedID == federatedID && federatedID != "" })
}

func (r *InMemoryRepository) findLocked(match func(*models.User) bool) (*models.User, error) {
	for _, id := range r.order {
		if u := r.byID[id]; match(u) {
			return clone(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *InMemoryRepository) CreateLocal(ctx context.Context, username string, hash, salt []byte) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.findLocked(func(u *models.User) bool { return u.Username == username }); err == nil {
		return nil, common.ErrDuplicateUsername
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now(),
	}
	r.byID[u.ID] = u
	r.order = append(r.order, u.ID)
	return clone(u), nil
}

func (r *InMemoryRepository) UpsertFederated(ctx context.Context, providerUserID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Find-or-create under one lock: racing callers serialize here.
	if u, err := r.findLocked(func(u *models.User) bool { return u.FederatedID == providerUserID }); err == nil {
		return u, nil
	}

	u := &models.User{
		ID:          uuid.NewString(),
		FederatedID: providerUserID,
		CreatedAt:   time.Now(),
	}
	r.byID[u.ID] = u
	r.order = append(r.order, u.ID)
	return clone(u), nil
}

func (r *InMemoryRepository) Save(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored.Secret = user.Secret
	return nil
}

func (r *InMemoryRepository) ListWithSecrets(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.User
	for _, id := range r.order {
		if u := r.byID[id]; u.HasSecret() {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

// Delete removes a user outright. Only tests need this (to model a session
// whose user record has since been deleted).
func (r *InMemoryRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Count returns the number of stored users.
func (r *InMemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// All returns a snapshot of every stored user in insertion order.
func (r *InMemoryRepository) All() []*models.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.byID[id]))
	}
	return out
}
