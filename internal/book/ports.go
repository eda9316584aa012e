package book

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

import (
	"context"

	"bookshelf/internal/author"
	"bookshelf/internal/metadata"
)

// Repository defines the contract for book data storage.
type Repository interface {
	Create(ctx context.Context, nb NormalizedBook) (Book, error)
	// Update replaces every field of the book.
	Update(ctx context.Context, id string, nb NormalizedBook) (Book, error)
	// Delete removes the book together with its reviews and notes.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, q ListQuery) ([]Listing, error)
	// FindExisting returns a book whose title contains title and whose
	// author's name contains authorName, ignoring case.
	FindExisting(ctx context.Context, title, authorName string) (Book, error)
}

// MetadataMatcher picks the best metadata candidate for a title and author.
type MetadataMatcher interface {
	FindBestMatch(ctx context.Context, authorName, title string) (*metadata.Candidate, error)
}

// AuthorResolver resolves an author name to a stored author.
type AuthorResolver interface {
	GetOrCreate(ctx context.Context, name string) (author.Author, error)
}
