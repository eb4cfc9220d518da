package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "password_hash", "password_salt", "federated_id", "secret", "created_at"}

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestFindByUsername(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "alice", []byte("h"), []byte("s"), "", "", now))

	u, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsernameNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateLocal(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("alice", []byte("h"), []byte("s")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u1", time.Now()))

	u, err := repo.CreateLocal(context.Background(), "alice", []byte("h"), []byte("s"))
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLocalDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("alice", []byte("h"), []byte("s")).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	_, err := repo.CreateLocal(context.Background(), "alice", []byte("h"), []byte("s"))
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)
}

func TestUpsertFederatedReturnsRowOnConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (federated_id)`)).
		WithArgs("g-42").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u9", "", nil, nil, "g-42", "", now))

	u, err := repo.UpsertFederated(context.Background(), "g-42")
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)
	assert.Equal(t, "g-42", u.FederatedID)
	assert.Empty(t, u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
		WithArgs("u1", "my secret").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &models.User{ID: "u1", Secret: "my secret"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
		WithArgs("nope", "x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), &models.User{ID: "nope", Secret: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListWithSecrets(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`secret IS NOT NULL`)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "alice", []byte("h"), []byte("s"), "", "one", now).
			AddRow("u2", "", nil, nil, "g-42", "two", now))

	list, err := repo.ListWithSecrets(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Secret)
	assert.Equal(t, "two", list[1].Secret)
}
