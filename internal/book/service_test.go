package book

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookshelf/internal/access"
	"bookshelf/internal/apperr"
	"bookshelf/internal/author"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, reconcilerDeps) {
	d := newReconcilerDeps(t)
	return NewService(d.repo, d.rec), d
}

func TestService_RequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	anon := access.Anonymous()

	_, err := svc.Create(ctx, anon, Fields{Title: "T", AuthorName: "A"}, true)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.Update(ctx, anon, "b-1", Fields{Title: "T", AuthorName: "A"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	err = svc.Delete(ctx, anon, "b-1")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestService_Create(t *testing.T) {
	svc, d := newTestService(t)
	admin := access.Admin("test")

	d.authors.EXPECT().GetOrCreate(gomock.Any(), "Marijn Haverbeke").
		Return(author.Author{ID: "a-1", Name: "Marijn Haverbeke"}, nil)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, nb NormalizedBook) (Book, error) {
			assert.Equal(t, "a-1", nb.AuthorID)
			return Book{ID: "b-1", Title: nb.Title, AuthorID: nb.AuthorID, AuthorName: nb.AuthorName}, nil
		})

	b, err := svc.Create(context.Background(), admin, Fields{Title: "Eloquent JavaScript", AuthorName: "Marijn Haverbeke"}, false)
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
}

func TestService_Delete(t *testing.T) {
	svc, d := newTestService(t)
	admin := access.Admin("test")

	t.Run("deleted", func(t *testing.T) {
		d.repo.EXPECT().Delete(gomock.Any(), "b-1").Return(nil)
		assert.NoError(t, svc.Delete(context.Background(), admin, "b-1"))
	})

	t.Run("not found", func(t *testing.T) {
		d.repo.EXPECT().Delete(gomock.Any(), "b-2").Return(ErrNotFound)
		err := svc.Delete(context.Background(), admin, "b-2")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})
}

func TestService_Update_NotFound(t *testing.T) {
	svc, d := newTestService(t)
	d.repo.EXPECT().GetByID(gomock.Any(), "missing").Return(Book{}, ErrNotFound)

	_, err := svc.Update(context.Background(), access.Admin("test"), "missing", Fields{Title: "T", AuthorName: "A"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func listings(n int) []Listing {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Listing, n)
	for i := range out {
		out[i] = Listing{Book: Book{
			ID:        "00000000-0000-4000-8000-00000000000" + string(rune('a'+i)),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}}
	}
	return out
}

func TestService_List(t *testing.T) {
	svc, d := newTestService(t)
	ctx := context.Background()

	t.Run("first page with more", func(t *testing.T) {
		d.repo.EXPECT().List(gomock.Any(), ListQuery{Limit: 3}).Return(listings(3), nil)

		page, err := svc.List(ctx, "", 2)
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		require.NotEmpty(t, page.NextCursor)

		data, err := DecodeCursor(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, page.Items[1].ID, data.AfterID)
	})

	t.Run("last page", func(t *testing.T) {
		cursor := EncodeCursor(cursorFor(listings(2)[1]))
		d.repo.EXPECT().List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q ListQuery) ([]Listing, error) {
				require.NotNil(t, q.After)
				assert.Equal(t, 3, q.Limit)
				return listings(1), nil
			})

		page, err := svc.List(ctx, cursor, 2)
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("empty", func(t *testing.T) {
		d.repo.EXPECT().List(gomock.Any(), ListQuery{Limit: DefaultPageSize + 1}).Return(nil, nil)

		page, err := svc.List(ctx, "", 0)
		require.NoError(t, err)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
	})

	t.Run("malformed cursor", func(t *testing.T) {
		_, err := svc.List(ctx, "%%%", 10)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}
