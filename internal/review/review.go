package review

//go:generate mockgen -source=review.go -destination=mock_repository.go -package=review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/apperr"
)

const (
	MinRating = 1
	MaxRating = 5

	maxReviewerName = 100
	maxComment      = 4000
)

// ErrBookNotFound is returned when a review targets a book that does not exist.
var ErrBookNotFound = fmt.Errorf("book %w", apperr.ErrNotFound)

type Review struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateInput struct {
	ReviewerName string
	Rating       int
	Comment      string
}

// Summary is the simple mean of a book's ratings.
type Summary struct {
	Average float64 `json:"average_rating"`
	Count   int     `json:"reviews_count"`
}

type Repository interface {
	// Create inserts the review only if the book exists, returning
	// ErrBookNotFound otherwise.
	Create(ctx context.Context, bookID string, in CreateInput) (Review, error)
	ListByBook(ctx context.Context, bookID string) ([]Review, error)
	Summarize(ctx context.Context, bookID string) (Summary, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Validate checks the invariants every stored review must satisfy.
func (in CreateInput) Validate() error {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return apperr.Invalid("rating", fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	name := strings.TrimSpace(in.ReviewerName)
	if name == "" {
		return apperr.Invalid("reviewer_name", "reviewer name is required")
	}
	if len(name) > maxReviewerName {
		return apperr.Invalid("reviewer_name", "reviewer name is too long")
	}
	if len(in.Comment) > maxComment {
		return apperr.Invalid("comment", "comment is too long")
	}
	return nil
}

// Create records a visitor review. No admin capability is needed.
func (s *Service) Create(ctx context.Context, bookID string, in CreateInput) (Review, error) {
	if err := in.Validate(); err != nil {
		return Review{}, err
	}
	in.ReviewerName = strings.TrimSpace(in.ReviewerName)
	in.Comment = strings.TrimSpace(in.Comment)
	return s.repo.Create(ctx, bookID, in)
}

// ListByBook returns the book's reviews, newest first.
func (s *Service) ListByBook(ctx context.Context, bookID string) ([]Review, error) {
	return s.repo.ListByBook(ctx, bookID)
}

// AverageRating is 0 when the book has no reviews.
func (s *Service) AverageRating(ctx context.Context, bookID string) (Summary, error) {
	return s.repo.Summarize(ctx, bookID)
}

// Average computes the mean rating of reviews, 0 for none.
func Average(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}
