package book

import (
	"context"

	"bookshelf/internal/access"
	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/logging"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service provides book-related business logic. Mutations require the
// admin capability and are rejected before any lookup or write.
type Service struct {
	repo       Repository
	reconciler *Reconciler
}

// NewService creates a new book service.
func NewService(repo Repository, reconciler *Reconciler) *Service {
	return &Service{repo: repo, reconciler: reconciler}
}

func (s *Service) Create(ctx context.Context, caller access.Capability, f Fields, useLookup bool) (Book, error) {
	if err := caller.RequireAdmin(); err != nil {
		return Book{}, err
	}

	nb, err := s.reconciler.ReconcileForCreate(ctx, f, useLookup)
	if err != nil {
		return Book{}, err
	}

	b, err := s.repo.Create(ctx, nb)
	if err != nil {
		return Book{}, err
	}
	logging.Ctx(ctx).Info().
		Str("book_id", b.ID).
		Str("title", b.Title).
		Bool("enriched", b.ExternalID != "").
		Msg("book created")
	return b, nil
}

func (s *Service) Update(ctx context.Context, caller access.Capability, id string, f Fields) (Book, error) {
	if err := caller.RequireAdmin(); err != nil {
		return Book{}, err
	}

	nb, err := s.reconciler.ReconcileForUpdate(ctx, id, f)
	if err != nil {
		return Book{}, err
	}
	return s.repo.Update(ctx, id, nb)
}

// Delete removes the book and everything it owns.
func (s *Service) Delete(ctx context.Context, caller access.Capability, id string) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("book_id", id).Msg("book deleted")
	return nil
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of listings, newest first. cursor is the opaque
// value from a previous Page.NextCursor.
func (s *Service) List(ctx context.Context, cursor string, pageSize int) (Page, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	q := ListQuery{Limit: pageSize + 1}
	if cursor != "" {
		data, err := DecodeCursor(cursor)
		if err != nil || data.AfterID == "" {
			return Page{}, apperr.Invalid("cursor", "cursor is malformed")
		}
		if _, err := data.Time(); err != nil {
			return Page{}, apperr.Invalid("cursor", "cursor is malformed")
		}
		q.After = &data
	}

	items, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: items}
	if len(items) > pageSize {
		page.Items = items[:pageSize]
		page.NextCursor = EncodeCursor(cursorFor(page.Items[pageSize-1]))
	}
	if page.Items == nil {
		page.Items = []Listing{}
	}
	return page, nil
}
