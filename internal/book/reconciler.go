package book

import (
	"context"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/metadata"
	"bookshelf/internal/platform/logging"
)

// Reconciler turns admin input, optionally enriched with metadata, into a
// record ready for the repository.
type Reconciler struct {
	books   Repository
	authors AuthorResolver
	lookup  MetadataMatcher
}

// NewReconciler builds a Reconciler. lookup may be nil, in which case
// metadata enrichment is skipped.
func NewReconciler(books Repository, authors AuthorResolver, lookup MetadataMatcher) *Reconciler {
	return &Reconciler{books: books, authors: authors, lookup: lookup}
}

func validate(f Fields) error {
	if strings.TrimSpace(f.Title) == "" {
		return apperr.Invalid("title", "title is required")
	}
	if strings.TrimSpace(f.AuthorName) == "" {
		return apperr.Invalid("author_name", "author name is required")
	}
	if f.PageCount != nil && *f.PageCount < 0 {
		return apperr.Invalid("page_count", "page count must not be negative")
	}
	return nil
}

// ReconcileForCreate merges f with the best metadata match when useLookup is
// set. Supplied fields always win over fetched ones, and a failed lookup only
// costs the enrichment.
func (r *Reconciler) ReconcileForCreate(ctx context.Context, f Fields, useLookup bool) (NormalizedBook, error) {
	if err := validate(f); err != nil {
		return NormalizedBook{}, err
	}

	nb := fromFields(f)

	if useLookup && r.lookup != nil {
		candidate, err := r.lookup.FindBestMatch(ctx, f.AuthorName, f.Title)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("title", f.Title).
				Str("author", f.AuthorName).
				Msg("metadata lookup failed, continuing with submitted fields")
		} else if candidate != nil {
			merge(&nb, candidate)
		}
	}

	a, err := r.authors.GetOrCreate(ctx, f.AuthorName)
	if err != nil {
		return NormalizedBook{}, err
	}
	nb.AuthorID = a.ID
	nb.AuthorName = a.Name

	return nb, nil
}

// ReconcileForUpdate validates a full replacement of book id. Metadata is
// never consulted; the author is re-resolved only when its name changed.
func (r *Reconciler) ReconcileForUpdate(ctx context.Context, id string, f Fields) (NormalizedBook, error) {
	if err := validate(f); err != nil {
		return NormalizedBook{}, err
	}

	existing, err := r.books.GetByID(ctx, id)
	if err != nil {
		return NormalizedBook{}, err
	}

	nb := fromFields(f)
	nb.ExternalID = existing.ExternalID

	if f.AuthorName == existing.AuthorName {
		nb.AuthorID = existing.AuthorID
		nb.AuthorName = existing.AuthorName
		return nb, nil
	}

	a, err := r.authors.GetOrCreate(ctx, f.AuthorName)
	if err != nil {
		return NormalizedBook{}, err
	}
	nb.AuthorID = a.ID
	nb.AuthorName = a.Name
	return nb, nil
}

func fromFields(f Fields) NormalizedBook {
	categories := f.Categories
	if categories == nil {
		categories = []string{}
	}
	return NormalizedBook{
		Title:         f.Title,
		AuthorName:    f.AuthorName,
		Description:   f.Description,
		PublishedDate: f.PublishedDate,
		PageCount:     f.PageCount,
		Thumbnail:     f.Thumbnail,
		ISBN10:        f.ISBN10,
		ISBN13:        f.ISBN13,
		Categories:    categories,
	}
}

func merge(nb *NormalizedBook, c *metadata.Candidate) {
	nb.Description = prefer(nb.Description, c.Description)
	nb.PublishedDate = prefer(nb.PublishedDate, c.PublishedDate)
	nb.Thumbnail = prefer(nb.Thumbnail, c.Thumbnail)
	nb.ISBN10 = prefer(nb.ISBN10, c.ISBN10)
	nb.ISBN13 = prefer(nb.ISBN13, c.ISBN13)
	if nb.PageCount == nil {
		nb.PageCount = c.PageCount
	}
	if len(nb.Categories) == 0 && len(c.Categories) > 0 {
		nb.Categories = c.Categories
	}
	nb.ExternalID = c.ExternalID
}

func prefer(user, fetched string) string {
	if strings.TrimSpace(user) != "" {
		return user
	}
	return fetched
}

// FromCandidate builds a record from a metadata candidate verbatim. Used by
// the seed path, where the candidate's author spelling is authoritative.
func FromCandidate(c metadata.Candidate, authorID string) NormalizedBook {
	categories := c.Categories
	if categories == nil {
		categories = []string{}
	}
	return NormalizedBook{
		Title:         c.Title,
		AuthorID:      authorID,
		AuthorName:    c.Author,
		Description:   c.Description,
		PublishedDate: c.PublishedDate,
		PageCount:     c.PageCount,
		Thumbnail:     c.Thumbnail,
		ISBN10:        c.ISBN10,
		ISBN13:        c.ISBN13,
		Categories:    categories,
		ExternalID:    c.ExternalID,
	}
}
