package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/googlebooks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchVolumes(ctx context.Context, query string, maxResults int) ([]googlebooks.Volume, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]googlebooks.Volume), args.Error(1)
}

func volume(id, title string, authors ...string) googlebooks.Volume {
	return googlebooks.Volume{ID: id, VolumeInfo: googlebooks.VolumeInfo{Title: title, Authors: authors}}
}

func TestProvider_FindBestMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the matching candidate", func(t *testing.T) {
		s := new(mockSearcher)
		s.On("SearchVolumes", mock.Anything, "Dave Asprey Smarter Not Harder", MaxResults).Return([]googlebooks.Volume{
			volume("v1", "Smarter Not Harder", "Dave Asprey"),
		}, nil)

		got, err := NewProvider(s, nil, 0).FindBestMatch(ctx, "Dave Asprey", "Smarter Not Harder")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "v1", got.ExternalID)
		assert.Equal(t, "Smarter Not Harder", got.Title)
		assert.Equal(t, "Dave Asprey", got.Author)
		s.AssertExpectations(t)
	})

	t.Run("prefers title and author match over position", func(t *testing.T) {
		s := new(mockSearcher)
		s.On("SearchVolumes", mock.Anything, mock.Anything, MaxResults).Return([]googlebooks.Volume{
			volume("v1", "Summary of Smarter Not Harder", "Some Summarizer"),
			volume("v2", "SMARTER NOT HARDER: The Biohacker's Guide", "dave asprey"),
		}, nil)

		got, err := NewProvider(s, nil, 0).FindBestMatch(ctx, "Dave Asprey", "Smarter Not Harder")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "v2", got.ExternalID)
	})

	t.Run("falls back to first result", func(t *testing.T) {
		s := new(mockSearcher)
		s.On("SearchVolumes", mock.Anything, mock.Anything, MaxResults).Return([]googlebooks.Volume{
			volume("v1", "Something Else", "Someone"),
			volume("v2", "Another", "Other"),
		}, nil)

		got, err := NewProvider(s, nil, 0).FindBestMatch(ctx, "Dave Asprey", "Smarter Not Harder")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "v1", got.ExternalID)
	})

	t.Run("empty result is absent", func(t *testing.T) {
		s := new(mockSearcher)
		s.On("SearchVolumes", mock.Anything, mock.Anything, MaxResults).Return([]googlebooks.Volume{}, nil)

		got, err := NewProvider(s, nil, 0).FindBestMatch(ctx, "Dave Asprey", "Smarter Not Harder")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("transport failure is provider unavailable", func(t *testing.T) {
		s := new(mockSearcher)
		s.On("SearchVolumes", mock.Anything, mock.Anything, MaxResults).Return(nil, errors.New("connection refused"))

		got, err := NewProvider(s, nil, 0).FindBestMatch(ctx, "Dave Asprey", "Smarter Not Harder")
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
	})
}

func TestProvider_Search_Normalizes(t *testing.T) {
	ctx := context.Background()
	s := new(mockSearcher)
	s.On("SearchVolumes", mock.Anything, "q", MaxResults).Return([]googlebooks.Volume{
		{
			ID: "full",
			VolumeInfo: googlebooks.VolumeInfo{
				Title:         "How To Create A Mind",
				Authors:       []string{"Ray Kurzweil", "Second Author"},
				Description:   "desc",
				PublishedDate: "2012",
				PageCount:     352,
				Categories:    []string{"Science"},
				ImageLinks:    &googlebooks.ImageLinks{SmallThumbnail: "small"},
				IndustryIdentifiers: []googlebooks.IndustryIdentifier{
					{Type: "OTHER", Identifier: "x"},
					{Type: "ISBN_13", Identifier: "9780670025299"},
					{Type: "ISBN_13", Identifier: "ignored"},
				},
			},
		},
		{ID: "bare"},
	}, nil)

	got, err := NewProvider(s, nil, 0).Search(ctx, "q")
	require.NoError(t, err)
	require.Len(t, got, 2)

	full := got[0]
	assert.Equal(t, "Ray Kurzweil", full.Author)
	assert.Equal(t, "small", full.Thumbnail)
	assert.Equal(t, "9780670025299", full.ISBN13)
	assert.Equal(t, "", full.ISBN10)
	require.NotNil(t, full.PageCount)
	assert.Equal(t, 352, *full.PageCount)

	bare := got[1]
	assert.Equal(t, "Unknown Title", bare.Title)
	assert.Equal(t, "Unknown Author", bare.Author)
	assert.Nil(t, bare.PageCount)
	assert.NotNil(t, bare.Categories)
	assert.Empty(t, bare.Categories)
}

type memoryCache struct {
	entries map[string][]Candidate
	ttls    map[string]time.Duration
	cleared bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]Candidate{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]Candidate, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, candidates []Candidate, ttl time.Duration) error {
	c.entries[key] = candidates
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Clear(context.Context) error {
	c.entries = map[string][]Candidate{}
	c.cleared = true
	return nil
}

func TestProvider_Search_UsesCache(t *testing.T) {
	ctx := context.Background()
	s := new(mockSearcher)
	s.On("SearchVolumes", mock.Anything, "Ray Kurzweil", MaxResults).Return([]googlebooks.Volume{
		volume("v1", "The Singularity is Near", "Ray Kurzweil"),
	}, nil).Once()

	cache := newMemoryCache()
	p := NewProvider(s, cache, 0)

	first, err := p.Search(ctx, "Ray Kurzweil")
	require.NoError(t, err)
	second, err := p.Search(ctx, "  ray kurzweil ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, DefaultCacheTTL, cache.ttls["ray kurzweil"])
	s.AssertNumberOfCalls(t, "SearchVolumes", 1)

	require.NoError(t, p.ClearCache(ctx))
	assert.True(t, cache.cleared)
}

func TestProvider_Search_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	s := new(mockSearcher)
	s.On("SearchVolumes", mock.Anything, "q", MaxResults).Return(nil, errors.New("boom")).Once()
	s.On("SearchVolumes", mock.Anything, "q", MaxResults).Return([]googlebooks.Volume{volume("v1", "T", "A")}, nil).Once()

	p := NewProvider(s, newMemoryCache(), time.Minute)

	_, err := p.Search(ctx, "q")
	require.Error(t, err)

	got, err := p.Search(ctx, "q")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// blockingSearcher holds every search until release is closed, failing early
// only if its own context ends.
type blockingSearcher struct {
	calls   int32
	entered chan struct{}
	once    sync.Once
	release chan struct{}
}

func (b *blockingSearcher) SearchVolumes(ctx context.Context, _ string, _ int) ([]googlebooks.Volume, error) {
	atomic.AddInt32(&b.calls, 1)
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
		return []googlebooks.Volume{volume("v1", "Smarter Not Harder", "Dave Asprey")}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestProvider_Search_SharedFetchSurvivesCallerCancel(t *testing.T) {
	s := &blockingSearcher{entered: make(chan struct{}), release: make(chan struct{})}
	p := NewProvider(s, nil, 0)
	const query = "dave asprey smarter not harder"

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := p.Search(ctxA, query)
		errA <- err
	}()
	<-s.entered

	type result struct {
		got []Candidate
		err error
	}
	resB := make(chan result, 1)
	go func() {
		got, err := p.Search(context.Background(), query)
		resB <- result{got, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.True(t, errors.Is(<-errA, context.Canceled))

	close(s.release)
	b := <-resB
	require.NoError(t, b.err)
	require.Len(t, b.got, 1)
	assert.Equal(t, "v1", b.got[0].ExternalID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.calls))
}

func TestExtractISBNs(t *testing.T) {
	isbn10, isbn13 := ExtractISBNs([]googlebooks.IndustryIdentifier{
		{Type: "ISBN_10", Identifier: "0143037889"},
		{Type: "ISBN_13", Identifier: "9780143037880"},
		{Type: "ISBN_10", Identifier: "second"},
	})
	assert.Equal(t, "0143037889", isbn10)
	assert.Equal(t, "9780143037880", isbn13)

	isbn10, isbn13 = ExtractISBNs(nil)
	assert.Empty(t, isbn10)
	assert.Empty(t, isbn13)
}
