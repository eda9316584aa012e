package book

import (
	"fmt"
	"time"

	"bookshelf/internal/apperr"
)

// ErrNotFound is returned when a book id does not resolve.
var ErrNotFound = fmt.Errorf("book %w", apperr.ErrNotFound)

// Book is a persisted catalog entry joined with its author's name.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Description   string    `json:"description,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"`
	PageCount     *int      `json:"page_count,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	ISBN10        string    `json:"isbn10,omitempty"`
	ISBN13        string    `json:"isbn13,omitempty"`
	Categories    []string  `json:"categories"`
	ExternalID    string    `json:"external_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Fields is what an admin submits when creating or replacing a book.
// Empty strings and a nil PageCount mean "not supplied".
type Fields struct {
	Title         string
	AuthorName    string
	Description   string
	PublishedDate string
	PageCount     *int
	Thumbnail     string
	ISBN10        string
	ISBN13        string
	Categories    []string
}

// NormalizedBook is a reconciled record ready to be written.
type NormalizedBook struct {
	Title         string
	AuthorID      string
	AuthorName    string
	Description   string
	PublishedDate string
	PageCount     *int
	Thumbnail     string
	ISBN10        string
	ISBN13        string
	Categories    []string
	ExternalID    string
}

// Listing is a row of the public book list.
type Listing struct {
	Book
	ReviewCount int `json:"review_count"`
	NoteCount   int `json:"note_count"`
}

// ListQuery selects one keyset page, newest first.
type ListQuery struct {
	After *CursorData
	Limit int
}

// Page is a slice of listings plus the cursor for the next page, if any.
type Page struct {
	Items      []Listing `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
