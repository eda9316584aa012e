package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (repo *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, repo.timeout)
}

// Create locks the book row so a concurrent delete cannot leave the new
// review dangling.
func (repo *PostgresRepo) Create(ctx context.Context, bookID string, in CreateInput) (Review, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return Review{}, ErrBookNotFound
	}

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	tx, err := repo.db.Begin(ctx)
	if err != nil {
		return Review{}, err
	}
	defer tx.Rollback(ctx)

	var exists int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM books WHERE id = $1 FOR SHARE`, bookID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrBookNotFound
		}
		return Review{}, fmt.Errorf("check book: %w", err)
	}

	const insertSQL = `
		INSERT INTO reviews (book_id, reviewer_name, rating, comment)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at`

	rv := Review{BookID: bookID, ReviewerName: in.ReviewerName, Rating: in.Rating, Comment: in.Comment}
	if err := tx.QueryRow(ctx, insertSQL, bookID, in.ReviewerName, in.Rating, in.Comment).Scan(&rv.ID, &rv.CreatedAt); err != nil {
		return Review{}, fmt.Errorf("insert review: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Review{}, err
	}
	return rv, nil
}

func (repo *PostgresRepo) ListByBook(ctx context.Context, bookID string) ([]Review, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return []Review{}, nil
	}

	const query = `
		SELECT id, book_id, reviewer_name, rating, COALESCE(comment, ''), created_at
		FROM reviews
		WHERE book_id = $1
		ORDER BY created_at DESC, id DESC`

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()
	rows, err := repo.db.Query(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.BookID, &rv.ReviewerName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (repo *PostgresRepo) Summarize(ctx context.Context, bookID string) (Summary, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return Summary{}, nil
	}

	const query = `
		SELECT AVG(rating)::FLOAT, COUNT(rating)
		FROM reviews
		WHERE book_id = $1`

	var average sql.NullFloat64
	var count int
	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()
	if err := repo.db.QueryRow(ctx, query, bookID).Scan(&average, &count); err != nil {
		return Summary{}, err
	}
	if !average.Valid {
		return Summary{}, nil
	}
	return Summary{Average: average.Float64, Count: count}, nil
}
