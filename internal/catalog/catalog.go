// Package catalog assembles the public read model of a single book.
package catalog

import (
	"context"

	"bookshelf/internal/book"
	"bookshelf/internal/note"
	"bookshelf/internal/review"
)

// Detail is everything the book page shows.
type Detail struct {
	Book          book.Book       `json:"book"`
	Reviews       []review.Review `json:"reviews"`
	Notes         []note.Note     `json:"notes"`
	AverageRating float64         `json:"average_rating"`
	ReviewsCount  int             `json:"reviews_count"`
}

type BookReader interface {
	Get(ctx context.Context, id string) (book.Book, error)
}

type ReviewReader interface {
	ListByBook(ctx context.Context, bookID string) ([]review.Review, error)
}

type NoteReader interface {
	ListByBook(ctx context.Context, bookID string) ([]note.Note, error)
}
