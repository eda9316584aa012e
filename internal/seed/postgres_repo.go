package seed

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	const sql = `
		INSERT INTO seed_runs (started_at, status)
		VALUES ($1, $2)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var id string
	err := r.db.QueryRow(ctx, sql, run.StartedAt, run.Status).Scan(&id)
	return id, err
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *Run) error {
	const sql = `
		UPDATE seed_runs SET
			finished_at = $1,
			status = $2,
			total = $3,
			created = $4,
			skipped = $5,
			failed = $6,
			error = NULLIF($7, '')
		WHERE id = $8`

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.db.Exec(ctx, sql,
		run.FinishedAt, run.Status,
		run.Summary.Total, run.Summary.Created, run.Summary.Skipped, run.Summary.Failed,
		run.Error, run.ID)
	return err
}
