package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/metrics"

	"golang.org/x/sync/singleflight"
)

type Provider struct {
	searcher VolumeSearcher
	cache    Cache
	ttl      time.Duration

	// inflight collapses concurrent identical searches into one upstream call.
	inflight singleflight.Group
}

// NewProvider returns a provider. cache may be nil to disable caching.
func NewProvider(searcher VolumeSearcher, cache Cache, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Provider{searcher: searcher, cache: cache, ttl: ttl}
}

// Search returns normalized candidates for a free-text query. Upstream
// failures are reported as apperr.ErrProviderUnavailable; no results is an
// empty slice.
func (p *Provider) Search(ctx context.Context, query string) ([]Candidate, error) {
	key := cacheKey(query)

	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("metadata cache read failed")
		} else if ok {
			metrics.MetadataLookups.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}

	// The shared fetch outlives any single caller; each caller stops waiting
	// on its own cancellation.
	results := p.inflight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		return p.fetch(fetchCtx, key, query)
	})
	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Candidate), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Provider) fetch(ctx context.Context, key, query string) ([]Candidate, error) {
	volumes, err := p.searcher.SearchVolumes(ctx, query, MaxResults)
	if err != nil {
		metrics.MetadataLookups.WithLabelValues("error").Inc()
		return nil, apperr.Unavailable(fmt.Errorf("search %q: %w", query, err))
	}
	metrics.MetadataLookups.WithLabelValues("miss").Inc()

	candidates := make([]Candidate, 0, len(volumes))
	for _, v := range volumes {
		candidates = append(candidates, normalize(v))
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, candidates, p.ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("metadata cache write failed")
		}
	}
	return candidates, nil
}

// FindBestMatch searches "author title" and picks the first candidate whose
// title and author both contain the inputs, case-insensitively. Without such
// a candidate it falls back to the first result. No results returns nil.
//
// The match is a plain substring check with no scoring.
func (p *Provider) FindBestMatch(ctx context.Context, author, title string) (*Candidate, error) {
	candidates, err := p.Search(ctx, strings.TrimSpace(author+" "+title))
	if err != nil {
		return nil, err
	}
	return bestMatch(candidates, author, title), nil
}

// ClearCache drops every cached search result.
func (p *Provider) ClearCache(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Clear(ctx)
}

func bestMatch(candidates []Candidate, author, title string) *Candidate {
	if len(candidates) == 0 {
		return nil
	}
	wantTitle := strings.ToLower(title)
	wantAuthor := strings.ToLower(author)
	for i := range candidates {
		c := &candidates[i]
		if strings.Contains(strings.ToLower(c.Title), wantTitle) &&
			strings.Contains(strings.ToLower(c.Author), wantAuthor) {
			return c
		}
	}
	return &candidates[0]
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func normalize(v googlebooks.Volume) Candidate {
	info := v.VolumeInfo

	c := Candidate{
		ExternalID:    v.ID,
		Title:         info.Title,
		Author:        unknownAuthor,
		Description:   info.Description,
		PublishedDate: info.PublishedDate,
		Categories:    info.Categories,
	}
	if c.Title == "" {
		c.Title = unknownTitle
	}
	if len(info.Authors) > 0 && info.Authors[0] != "" {
		c.Author = info.Authors[0]
	}
	if info.PageCount > 0 {
		n := info.PageCount
		c.PageCount = &n
	}
	if info.ImageLinks != nil {
		c.Thumbnail = info.ImageLinks.Thumbnail
		if c.Thumbnail == "" {
			c.Thumbnail = info.ImageLinks.SmallThumbnail
		}
	}
	if c.Categories == nil {
		c.Categories = []string{}
	}
	c.ISBN10, c.ISBN13 = ExtractISBNs(info.IndustryIdentifiers)
	return c
}

// ExtractISBNs returns the first ISBN_10 and ISBN_13 identifiers. A missing
// tag yields "".
func ExtractISBNs(ids []googlebooks.IndustryIdentifier) (isbn10, isbn13 string) {
	for _, id := range ids {
		switch id.Type {
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		case "ISBN_13":
			if isbn13 == "" {
				isbn13 = id.Identifier
			}
		}
	}
	return isbn10, isbn13
}
