package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/dbx"
	"github.com/avoronov/secretwall/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, COALESCE(username, ''), password_hash, password_salt, COALESCE(federated_id, ''), COALESCE(secret, ''), created_at`

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.PasswordSalt,
		&user.FederatedID, &user.Secret, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindByFederatedID(ctx context.Context, federatedID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE federated_id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, federatedID))
}

func (r *PostgresRepository) CreateLocal(ctx context.Context, username string, hash, salt []byte) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash, password_salt)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	user := &models.User{Username: username, PasswordHash: hash, PasswordSalt: salt}
	err := r.db.QueryRowContext(ctx, query, username, hash, salt).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// UpsertFederated is a single-statement find-or-create: the no-op DO UPDATE
// makes the conflicting row visible to RETURNING, so the winner and every
// loser of a concurrent race observe the same record.
func (r *PostgresRepository) UpsertFederated(ctx context.Context, providerUserID string) (*models.User, error) {
	query :=
		`INSERT INTO users (federated_id)
		 VALUES ($1)
		 ON CONFLICT (federated_id) WHERE federated_id IS NOT NULL
		 DO UPDATE SET federated_id = EXCLUDED.federated_id
		 RETURNING ` + userColumns + `
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, providerUserID))
}

func (r *PostgresRepository) Save(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET secret = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, user.ID, user.Secret)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListWithSecrets(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE secret IS NOT NULL AND secret <> '' ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.PasswordSalt,
			&user.FederatedID, &user.Secret, &user.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}
