package secrets

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(repo users.Repository) *Service {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(repo, logger)
}

func TestSubmitAndList(t *testing.T) {
	repo := users.NewInMemoryRepository()
	s := newService(repo)
	ctx := context.Background()

	alice, err := repo.CreateLocal(ctx, "alice", []byte("h"), []byte("s"))
	require.NoError(t, err)
	bob, err := repo.CreateLocal(ctx, "bob", []byte("h"), []byte("s"))
	require.NoError(t, err)

	require.NoError(t, s.Submit(ctx, alice.ID, "alice's secret"))

	list, err := s.ListShared(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice's secret"}, list)

	require.NoError(t, s.Submit(ctx, bob.ID, "bob's secret"))

	list, err = s.ListShared(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSubmitReplacesPrevious(t *testing.T) {
	repo := users.NewInMemoryRepository()
	s := newService(repo)
	ctx := context.Background()

	alice, err := repo.CreateLocal(ctx, "alice", []byte("h"), []byte("s"))
	require.NoError(t, err)

	require.NoError(t, s.Submit(ctx, alice.ID, "first"))
	require.NoError(t, s.Submit(ctx, alice.ID, "second"))

	list, err := s.ListShared(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, list)
}

func TestSubmitUnknownUser(t *testing.T) {
	s := newService(users.NewInMemoryRepository())

	err := s.Submit(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
