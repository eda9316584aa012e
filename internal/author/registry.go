package author

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/metrics"
)

// Registry resolves author names to stored authors, creating them on first
// use.
type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo}
}

// GetOrCreate returns the author named name, creating it if needed.
// Lookup-then-insert is not atomic; when a concurrent insert wins the race
// the unique constraint rejects ours and the winner's row is returned.
func (r *Registry) GetOrCreate(ctx context.Context, name string) (Author, error) {
	if strings.TrimSpace(name) == "" {
		return Author{}, apperr.Invalid("author_name", "author name is required")
	}

	a, err := r.repo.GetByName(ctx, name)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Author{}, fmt.Errorf("get author by name: %w", err)
	}

	a, err = r.repo.Create(ctx, name)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return Author{}, fmt.Errorf("create author: %w", err)
	}

	metrics.AuthorConflicts.Inc()
	logging.Ctx(ctx).Debug().Str("author", name).Msg("author created concurrently, re-reading")

	a, err = r.repo.GetByName(ctx, name)
	if err != nil {
		return Author{}, fmt.Errorf("re-read author after conflict: %w", err)
	}
	return a, nil
}
