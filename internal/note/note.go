// Package note exposes the read side of personal notes attached to books.
package note

import (
	"context"
	"time"
)

type Note struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	ListByBook(ctx context.Context, bookID string) ([]Note, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListByBook returns the book's notes, newest first.
func (s *Service) ListByBook(ctx context.Context, bookID string) ([]Note, error) {
	notes, err := s.repo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}
