package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const bookColumns = `
	b.id, b.title, b.author_id, a.name,
	COALESCE(b.description, ''), COALESCE(b.published_date, ''), b.page_count,
	COALESCE(b.thumbnail, ''), COALESCE(b.isbn10, ''), COALESCE(b.isbn13, ''),
	b.categories, COALESCE(b.external_id, ''), b.created_at`

func scanBook(row pgx.Row, extra ...any) (Book, error) {
	var b Book
	dest := []any{
		&b.ID, &b.Title, &b.AuthorID, &b.AuthorName,
		&b.Description, &b.PublishedDate, &b.PageCount,
		&b.Thumbnail, &b.ISBN10, &b.ISBN13,
		&b.Categories, &b.ExternalID, &b.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if b.Categories == nil {
		b.Categories = []string{}
	}
	return b, err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func categoriesOf(nb NormalizedBook) []string {
	if nb.Categories == nil {
		return []string{}
	}
	return nb.Categories
}

func (r *PostgresRepo) Create(ctx context.Context, nb NormalizedBook) (Book, error) {
	const query = `
		INSERT INTO books (title, author_id, description, published_date, page_count,
		                   thumbnail, isbn10, isbn13, categories, external_id)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5,
		        NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, NULLIF($10, ''))
		RETURNING id, created_at`

	b := bookFrom(nb)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx, query,
		nb.Title, nb.AuthorID, nb.Description, nb.PublishedDate, nb.PageCount,
		nb.Thumbnail, nb.ISBN10, nb.ISBN13, b.Categories, nb.ExternalID,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return Book{}, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, nb NormalizedBook) (Book, error) {
	if !validID(id) {
		return Book{}, ErrNotFound
	}

	const query = `
		UPDATE books SET
			title = $2,
			author_id = $3,
			description = NULLIF($4, ''),
			published_date = NULLIF($5, ''),
			page_count = $6,
			thumbnail = NULLIF($7, ''),
			isbn10 = NULLIF($8, ''),
			isbn13 = NULLIF($9, ''),
			categories = $10,
			external_id = NULLIF($11, '')
		WHERE id = $1
		RETURNING id, created_at`

	b := bookFrom(nb)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx, query, id,
		nb.Title, nb.AuthorID, nb.Description, nb.PublishedDate, nb.PageCount,
		nb.Thumbnail, nb.ISBN10, nb.ISBN13, b.Categories, nb.ExternalID,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

// Delete removes dependents first so no review or note can outlive its book,
// whatever the foreign keys say.
func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE book_id = $1`, id); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM personal_notes WHERE book_id = $1`, id); err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	if !validID(id) {
		return Book{}, ErrNotFound
	}

	query := `SELECT ` + bookColumns + `
		FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.id = $1`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context, q ListQuery) ([]Listing, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.After != nil {
		after, err := q.After.Time()
		if err != nil {
			return nil, fmt.Errorf("cursor time: %w", err)
		}
		clauses = append(clauses, fmt.Sprintf("(b.created_at, b.id) < ($%d, $%d::uuid)", argn, argn+1))
		args = append(args, after, q.After.AfterID)
		argn += 2
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       (SELECT COUNT(*) FROM reviews rv WHERE rv.book_id = b.id),
		       (SELECT COUNT(*) FROM personal_notes pn WHERE pn.book_id = b.id)
		FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE %s
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $%d`,
		bookColumns, strings.Join(clauses, " AND "), argn)
	args = append(args, q.Limit)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		var l Listing
		b, err := scanBook(rows, &l.ReviewCount, &l.NoteCount)
		if err != nil {
			return nil, err
		}
		l.Book = b
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) FindExisting(ctx context.Context, title, authorName string) (Book, error) {
	query := `SELECT ` + bookColumns + `
		FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.title ILIKE $1 AND a.name ILIKE $2
		ORDER BY b.created_at
		LIMIT 1`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(ctx, query, containsPattern(title), containsPattern(authorName)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func bookFrom(nb NormalizedBook) Book {
	return Book{
		Title:         nb.Title,
		AuthorID:      nb.AuthorID,
		AuthorName:    nb.AuthorName,
		Description:   nb.Description,
		PublishedDate: nb.PublishedDate,
		PageCount:     nb.PageCount,
		Thumbnail:     nb.Thumbnail,
		ISBN10:        nb.ISBN10,
		ISBN13:        nb.ISBN13,
		Categories:    categoriesOf(nb),
		ExternalID:    nb.ExternalID,
	}
}
