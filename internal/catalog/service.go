package catalog

import (
	"context"
	"fmt"

	"bookshelf/internal/note"
	"bookshelf/internal/review"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	books   BookReader
	reviews ReviewReader
	notes   NoteReader
}

func NewService(books BookReader, reviews ReviewReader, notes NoteReader) *Service {
	return &Service{books: books, reviews: reviews, notes: notes}
}

// BookDetail loads the book first so a missing id is reported as not found,
// then fetches reviews and notes concurrently.
func (s *Service) BookDetail(ctx context.Context, id string) (Detail, error) {
	b, err := s.books.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Book: b}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reviews, err := s.reviews.ListByBook(gctx, id)
		if err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}
		d.Reviews = reviews
		return nil
	})
	g.Go(func() error {
		notes, err := s.notes.ListByBook(gctx, id)
		if err != nil {
			return fmt.Errorf("list notes: %w", err)
		}
		d.Notes = notes
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}

	if d.Reviews == nil {
		d.Reviews = []review.Review{}
	}
	if d.Notes == nil {
		d.Notes = []note.Note{}
	}
	d.AverageRating = review.Average(d.Reviews)
	d.ReviewsCount = len(d.Reviews)
	return d, nil
}
