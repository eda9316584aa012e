package author

import (
	"context"
	"fmt"
	"time"

	"bookshelf/internal/apperr"
)

// ErrNotFound is returned when no author has the requested name or id.
var ErrNotFound = fmt.Errorf("author %w", apperr.ErrNotFound)

// ErrDuplicateName is returned by Repository.Create when the name is taken.
var ErrDuplicateName = fmt.Errorf("author name %w", apperr.ErrConflict)

// Author is unique by exact, case-sensitive name.
type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

//go:generate mockgen -source=author.go -destination=mock_repository.go -package=author

// Repository persists authors. Create must fail with ErrDuplicateName when
// the store's unique constraint on name rejects the insert.
type Repository interface {
	GetByName(ctx context.Context, name string) (Author, error)
	GetByID(ctx context.Context, id string) (Author, error)
	Create(ctx context.Context, name string) (Author, error)
	List(ctx context.Context) ([]Author, error)
}
