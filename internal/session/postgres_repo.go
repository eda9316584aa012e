package session

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	revokeTokenSQL = `
	INSERT INTO token_blacklist (jti, subject, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (jti) DO NOTHING`

	tokenRevokedSQL = `
	SELECT EXISTS (
		SELECT 1 FROM token_blacklist
		WHERE jti = $1 AND expires_at > now()
	)`

	purgeExpiredSQL = `DELETE FROM token_blacklist WHERE expires_at < now()`
)

// PostgresRepo stores revoked session token ids in token_blacklist.
type PostgresRepo struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewPostgresRepo(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresRepo {
	return &PostgresRepo{pool: pool, queryTimeout: queryTimeout}
}

// Revoke is idempotent per jti.
func (r *PostgresRepo) Revoke(ctx context.Context, jti, subject string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, revokeTokenSQL, jti, subject, expiresAt.UTC())
	return err
}

// IsRevoked ignores entries whose token has already expired.
func (r *PostgresRepo) IsRevoked(ctx context.Context, jti string) (revoked bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	err = r.pool.QueryRow(ctx, tokenRevokedSQL, jti).Scan(&revoked)
	return revoked, err
}

func (r *PostgresRepo) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, purgeExpiredSQL)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
