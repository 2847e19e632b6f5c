package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps sessions in a Postgres table with the session data
// serialized as JSONB. Expired rows are kept until DeleteExpired runs;
// Load hands them back unfiltered so callers enforce expiry.
type PostgresStore struct {
	pool       *pgxpool.Pool
	defaultTTL time.Duration
	nowTime    func() time.Time
}

// NewPostgresStore wraps the pool. defaultTTL is applied to sessions
// created without an explicit expiry (pending logins).
func NewPostgresStore(pool *pgxpool.Pool, defaultTTL time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:       pool,
		defaultTTL: defaultTTL,
		nowTime:    time.Now,
	}
}

// Migrate creates the sessions table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS http_sessions (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return errors.Wrap(err, "[PostgresStore.Migrate] creating http_sessions table")
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, data Data) (string, error) {
	if data.ExpiresAt.IsZero() {
		data.ExpiresAt = s.nowTime().Add(s.defaultTTL)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "[PostgresStore.Create] marshalling session")
	}

	id := newSessionID()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO http_sessions (id, data, expires_at) VALUES ($1, $2, $3)`,
		id, payload, data.ExpiresAt)
	if err != nil {
		return "", errors.Wrap(err, "[PostgresStore.Create] inserting session")
	}
	return id, nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*Data, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM http_sessions WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[PostgresStore.Load] querying session")
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, errors.Wrap(err, "[PostgresStore.Load] unmarshalling session")
	}
	return &data, nil
}

func (s *PostgresStore) Destroy(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM http_sessions WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "[PostgresStore.Destroy] deleting session")
	}
	return nil
}

// DeleteExpired removes sessions whose expiry has passed and returns the
// number of rows deleted. Intended to be run periodically.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM http_sessions WHERE expires_at < $1`, s.nowTime())
	if err != nil {
		return 0, errors.Wrap(err, "[PostgresStore.DeleteExpired] deleting sessions")
	}
	return tag.RowsAffected(), nil
}
