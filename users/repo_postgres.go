package users

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var _ Repo = (*PostgresRepo)(nil)

// PostgresRepo stores users in a Postgres table, matching on email.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

// Migrate creates the users table if it does not exist.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id             BIGSERIAL PRIMARY KEY,
			name           TEXT,
			email          TEXT NOT NULL UNIQUE,
			email_verified TIMESTAMPTZ,
			image          TEXT,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.Migrate] creating users table")
	}
	return nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, user *User) (*User, error) {
	stored := *user
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, email_verified, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			name           = EXCLUDED.name,
			email_verified = COALESCE(EXCLUDED.email_verified, users.email_verified),
			image          = EXCLUDED.image,
			updated_at     = EXCLUDED.updated_at
		RETURNING id, created_at`,
		user.Name, user.Email, user.EmailVerified, user.Image, user.CreatedAt, user.UpdatedAt,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.Upsert] upserting user")
	}
	return &stored, nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, email_verified, image, created_at, updated_at
		FROM users
		WHERE email = $1`, email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.EmailVerified, &user.Image, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[PostgresRepo.GetByEmail] querying user")
	}
	return &user, nil
}
