package author

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) GetByName(ctx context.Context, name string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `SELECT id, name, created_at FROM authors WHERE name = $1`
	var a Author
	if err := r.db.QueryRow(ctx, query, name).Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, err
	}
	return a, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `SELECT id, name, created_at FROM authors WHERE id = $1`
	var a Author
	if err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, err
	}
	return a, nil
}

func (r *PostgresRepo) Create(ctx context.Context, name string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
		INSERT INTO authors (id, name, created_at)
		VALUES (gen_random_uuid(), $1, now())
		RETURNING id, name, created_at
	`
	var a Author
	if err := r.db.QueryRow(ctx, query, name).Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Author{}, ErrDuplicateName
		}
		return Author{}, err
	}
	return a, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM authors ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := []Author{}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}
