// Package metadata looks up book metadata candidates from Google Books and
// normalizes them for reconciliation.
package metadata

import (
	"context"
	"time"

	"bookshelf/internal/platform/googlebooks"
)

const (
	// MaxResults is the number of volumes requested per search.
	MaxResults = 10

	DefaultCacheTTL = time.Hour
	// FetchTimeout bounds one shared upstream search, retries included.
	FetchTimeout = 90 * time.Second

	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown Author"
)

// Candidate is a normalized search result. It is never persisted.
type Candidate struct {
	ExternalID    string   `json:"external_id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	PageCount     *int     `json:"page_count,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	ISBN10        string   `json:"isbn10,omitempty"`
	ISBN13        string   `json:"isbn13,omitempty"`
	Categories    []string `json:"categories"`
}

// VolumeSearcher is the transport used by Provider.
type VolumeSearcher interface {
	SearchVolumes(ctx context.Context, query string, maxResults int) ([]googlebooks.Volume, error)
}

// Cache stores search results by query. Implementations treat expired
// entries as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]Candidate, bool, error)
	Set(ctx context.Context, key string, candidates []Candidate, ttl time.Duration) error
	Clear(ctx context.Context) error
}
