package book

import (
	"context"
	"errors"
	"testing"

	"bookshelf/internal/apperr"
	"bookshelf/internal/author"
	"bookshelf/internal/metadata"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

type reconcilerDeps struct {
	repo    *MockRepository
	authors *MockAuthorResolver
	lookup  *MockMetadataMatcher
	rec     *Reconciler
}

func newReconcilerDeps(t *testing.T) reconcilerDeps {
	ctrl := gomock.NewController(t)
	d := reconcilerDeps{
		repo:    NewMockRepository(ctrl),
		authors: NewMockAuthorResolver(ctrl),
		lookup:  NewMockMetadataMatcher(ctrl),
	}
	d.rec = NewReconciler(d.repo, d.authors, d.lookup)
	return d
}

func TestReconcileForCreate_Validation(t *testing.T) {
	cases := []struct {
		name  string
		f     Fields
		field string
	}{
		{"missing title", Fields{AuthorName: "Dave Asprey"}, "title"},
		{"blank title", Fields{Title: "   ", AuthorName: "Dave Asprey"}, "title"},
		{"missing author", Fields{Title: "Smarter Not Harder"}, "author_name"},
		{"negative pages", Fields{Title: "T", AuthorName: "A", PageCount: intPtr(-1)}, "page_count"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newReconcilerDeps(t)
			// no expectations: nothing may be looked up or created

			_, err := d.rec.ReconcileForCreate(context.Background(), tc.f, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrValidation))

			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestReconcileForCreate_NoLookup(t *testing.T) {
	d := newReconcilerDeps(t)
	d.authors.EXPECT().GetOrCreate(gomock.Any(), "Marijn Haverbeke").
		Return(author.Author{ID: "a-1", Name: "Marijn Haverbeke"}, nil)

	nb, err := d.rec.ReconcileForCreate(context.Background(), Fields{
		Title:      "Eloquent JavaScript",
		AuthorName: "Marijn Haverbeke",
	}, false)

	require.NoError(t, err)
	assert.Equal(t, "Eloquent JavaScript", nb.Title)
	assert.Equal(t, "Marijn Haverbeke", nb.AuthorName)
	assert.Equal(t, "a-1", nb.AuthorID)
	assert.Empty(t, nb.ExternalID)
	assert.Equal(t, []string{}, nb.Categories)
}

func TestReconcileForCreate_ProviderUnavailable(t *testing.T) {
	d := newReconcilerDeps(t)
	d.lookup.EXPECT().FindBestMatch(gomock.Any(), "Joe Dispenza", "Becoming Supernatural").
		Return(nil, apperr.Unavailable(errors.New("dial tcp: i/o timeout")))
	d.authors.EXPECT().GetOrCreate(gomock.Any(), "Joe Dispenza").
		Return(author.Author{ID: "a-2", Name: "Joe Dispenza"}, nil)

	nb, err := d.rec.ReconcileForCreate(context.Background(), Fields{
		Title:       "Becoming Supernatural",
		AuthorName:  "Joe Dispenza",
		Description: "mine",
	}, true)

	require.NoError(t, err)
	assert.Equal(t, "Becoming Supernatural", nb.Title)
	assert.Equal(t, "mine", nb.Description)
	assert.Empty(t, nb.ExternalID)
}

func TestReconcileForCreate_MergePrecedence(t *testing.T) {
	candidate := &metadata.Candidate{
		ExternalID:    "vol-9",
		Title:         "Smarter Not Harder: The Biohacker's Guide",
		Author:        "Dave Asprey",
		Description:   "Y",
		PublishedDate: "2023-01-24",
		PageCount:     intPtr(336),
		Thumbnail:     "http://books.google.com/thumb.jpg",
		ISBN10:        "0063116413",
		ISBN13:        "9780063116412",
		Categories:    []string{"Health & Fitness"},
	}

	t.Run("user values win", func(t *testing.T) {
		d := newReconcilerDeps(t)
		d.lookup.EXPECT().FindBestMatch(gomock.Any(), "Dave Asprey", "Smarter Not Harder").Return(candidate, nil)
		d.authors.EXPECT().GetOrCreate(gomock.Any(), "Dave Asprey").Return(author.Author{ID: "a-3", Name: "Dave Asprey"}, nil)

		nb, err := d.rec.ReconcileForCreate(context.Background(), Fields{
			Title:       "Smarter Not Harder",
			AuthorName:  "Dave Asprey",
			Description: "X",
			PageCount:   intPtr(10),
			Categories:  []string{"Biohacking"},
		}, true)

		require.NoError(t, err)
		assert.Equal(t, "Smarter Not Harder", nb.Title, "title is never taken from the candidate")
		assert.Equal(t, "X", nb.Description)
		assert.Equal(t, 10, *nb.PageCount)
		assert.Equal(t, []string{"Biohacking"}, nb.Categories)
		assert.Equal(t, "2023-01-24", nb.PublishedDate)
		assert.Equal(t, "9780063116412", nb.ISBN13)
		assert.Equal(t, "vol-9", nb.ExternalID)
	})

	t.Run("empty user values take the candidate's", func(t *testing.T) {
		d := newReconcilerDeps(t)
		d.lookup.EXPECT().FindBestMatch(gomock.Any(), "Dave Asprey", "Smarter Not Harder").Return(candidate, nil)
		d.authors.EXPECT().GetOrCreate(gomock.Any(), "Dave Asprey").Return(author.Author{ID: "a-3", Name: "Dave Asprey"}, nil)

		nb, err := d.rec.ReconcileForCreate(context.Background(), Fields{
			Title:      "Smarter Not Harder",
			AuthorName: "Dave Asprey",
		}, true)

		require.NoError(t, err)
		assert.Equal(t, "Y", nb.Description)
		assert.Equal(t, 336, *nb.PageCount)
		assert.Equal(t, "http://books.google.com/thumb.jpg", nb.Thumbnail)
		assert.Equal(t, "0063116413", nb.ISBN10)
		assert.Equal(t, []string{"Health & Fitness"}, nb.Categories)
	})
}

func TestReconcileForCreate_CandidateAuthorIgnored(t *testing.T) {
	d := newReconcilerDeps(t)
	d.lookup.EXPECT().FindBestMatch(gomock.Any(), "ray kurzweil", "How To Create A Mind").
		Return(&metadata.Candidate{ExternalID: "v1", Title: "How to Create a Mind", Author: "Ray Kurzweil", Categories: []string{}}, nil)
	d.authors.EXPECT().GetOrCreate(gomock.Any(), "ray kurzweil").
		Return(author.Author{ID: "a-4", Name: "ray kurzweil"}, nil)

	nb, err := d.rec.ReconcileForCreate(context.Background(), Fields{
		Title:      "How To Create A Mind",
		AuthorName: "ray kurzweil",
	}, true)

	require.NoError(t, err)
	assert.Equal(t, "ray kurzweil", nb.AuthorName)
}

func TestReconcileForCreate_NoCandidate(t *testing.T) {
	d := newReconcilerDeps(t)
	d.lookup.EXPECT().FindBestMatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	d.authors.EXPECT().GetOrCreate(gomock.Any(), "A").Return(author.Author{ID: "a", Name: "A"}, nil)

	nb, err := d.rec.ReconcileForCreate(context.Background(), Fields{Title: "T", AuthorName: "A"}, true)
	require.NoError(t, err)
	assert.Empty(t, nb.ExternalID)
}

func TestReconcileForCreate_AuthorFailurePropagates(t *testing.T) {
	d := newReconcilerDeps(t)
	dbErr := errors.New("connection refused")
	d.authors.EXPECT().GetOrCreate(gomock.Any(), "A").Return(author.Author{}, dbErr)

	_, err := d.rec.ReconcileForCreate(context.Background(), Fields{Title: "T", AuthorName: "A"}, false)
	assert.True(t, errors.Is(err, dbErr))
}

func TestReconcileForUpdate(t *testing.T) {
	existing := Book{
		ID:         "b-1",
		Title:      "The Singularity is Near",
		AuthorID:   "a-1",
		AuthorName: "Ray Kurzweil",
		ExternalID: "vol-1",
	}

	t.Run("same author keeps reference", func(t *testing.T) {
		d := newReconcilerDeps(t)
		d.repo.EXPECT().GetByID(gomock.Any(), "b-1").Return(existing, nil)

		nb, err := d.rec.ReconcileForUpdate(context.Background(), "b-1", Fields{
			Title:      "The Singularity Is Near",
			AuthorName: "Ray Kurzweil",
		})

		require.NoError(t, err)
		assert.Equal(t, "a-1", nb.AuthorID)
		assert.Equal(t, "The Singularity Is Near", nb.Title)
		assert.Equal(t, "vol-1", nb.ExternalID)
	})

	t.Run("changed author is re-resolved", func(t *testing.T) {
		d := newReconcilerDeps(t)
		d.repo.EXPECT().GetByID(gomock.Any(), "b-1").Return(existing, nil)
		d.authors.EXPECT().GetOrCreate(gomock.Any(), "R. Kurzweil").Return(author.Author{ID: "a-9", Name: "R. Kurzweil"}, nil)

		nb, err := d.rec.ReconcileForUpdate(context.Background(), "b-1", Fields{
			Title:      existing.Title,
			AuthorName: "R. Kurzweil",
		})

		require.NoError(t, err)
		assert.Equal(t, "a-9", nb.AuthorID)
	})

	t.Run("missing book", func(t *testing.T) {
		d := newReconcilerDeps(t)
		d.repo.EXPECT().GetByID(gomock.Any(), "nope").Return(Book{}, ErrNotFound)

		_, err := d.rec.ReconcileForUpdate(context.Background(), "nope", Fields{Title: "T", AuthorName: "A"})
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("never looks up metadata", func(t *testing.T) {
		d := newReconcilerDeps(t)
		d.repo.EXPECT().GetByID(gomock.Any(), "b-1").Return(existing, nil)
		d.lookup.EXPECT().FindBestMatch(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := d.rec.ReconcileForUpdate(context.Background(), "b-1", Fields{Title: "T", AuthorName: "Ray Kurzweil"})
		require.NoError(t, err)
	})

	t.Run("validation before lookup of the book", func(t *testing.T) {
		d := newReconcilerDeps(t)

		_, err := d.rec.ReconcileForUpdate(context.Background(), "b-1", Fields{AuthorName: "Ray Kurzweil"})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}

func TestFromCandidate(t *testing.T) {
	nb := FromCandidate(metadata.Candidate{
		ExternalID: "v",
		Title:      "Heavily Meditated",
		Author:     "Dave Asprey",
	}, "a-1")

	assert.Equal(t, "Heavily Meditated", nb.Title)
	assert.Equal(t, "Dave Asprey", nb.AuthorName)
	assert.Equal(t, "a-1", nb.AuthorID)
	assert.Equal(t, "v", nb.ExternalID)
	assert.NotNil(t, nb.Categories)
}
