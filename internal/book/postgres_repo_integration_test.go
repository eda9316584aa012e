//go:build integration

package book

import (
	"context"
	"testing"
	"time"

	"bookshelf/internal/author"
	"bookshelf/internal/review"
	"bookshelf/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_DeleteCascades(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	authors := author.NewPostgresRepo(pool, 5*time.Second)
	books := NewPostgresRepo(pool, 5*time.Second)
	reviews := review.NewPostgresRepo(pool, 5*time.Second)

	a, err := authors.Create(ctx, "Ray Kurzweil")
	require.NoError(t, err)

	pages := 652
	b, err := books.Create(ctx, NormalizedBook{
		Title:      "The Singularity Is Near",
		AuthorID:   a.ID,
		AuthorName: a.Name,
		PageCount:  &pages,
		Categories: []string{"Science"},
	})
	require.NoError(t, err)

	other, err := books.Create(ctx, NormalizedBook{Title: "How To Create A Mind", AuthorID: a.ID, AuthorName: a.Name})
	require.NoError(t, err)

	for _, in := range []review.CreateInput{
		{ReviewerName: "Ana", Rating: 5},
		{ReviewerName: "Budi", Rating: 3},
	} {
		_, err = reviews.Create(ctx, b.ID, in)
		require.NoError(t, err)
	}
	_, err = reviews.Create(ctx, other.ID, review.CreateInput{ReviewerName: "Citra", Rating: 4})
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO personal_notes (book_id, title, content) VALUES ($1, 'n', 'c')`, b.ID)
	require.NoError(t, err)

	listing, err := books.List(ctx, ListQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listing, 2)
	counts := map[string][2]int{}
	for _, item := range listing {
		counts[item.ID] = [2]int{item.ReviewCount, item.NoteCount}
	}
	assert.Equal(t, [2]int{2, 1}, counts[b.ID])
	assert.Equal(t, [2]int{1, 0}, counts[other.ID])

	require.NoError(t, books.Delete(ctx, b.ID))

	var dangling int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM reviews WHERE book_id = $1) + (SELECT COUNT(*) FROM personal_notes WHERE book_id = $1)`,
		b.ID).Scan(&dangling))
	assert.Zero(t, dangling)

	var survivors int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE book_id = $1`, other.ID).Scan(&survivors))
	assert.Equal(t, 1, survivors)

	_, err = books.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, books.Delete(ctx, b.ID), ErrNotFound)
}

func TestPostgresRepo_FindExisting(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	authors := author.NewPostgresRepo(pool, 5*time.Second)
	books := NewPostgresRepo(pool, 5*time.Second)

	a, err := authors.Create(ctx, "Dave Asprey")
	require.NoError(t, err)
	created, err := books.Create(ctx, NormalizedBook{Title: "Super Human", AuthorID: a.ID, AuthorName: a.Name})
	require.NoError(t, err)

	got, err := books.FindExisting(ctx, "super human", "asprey")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Dave Asprey", got.AuthorName)

	_, err = books.FindExisting(ctx, "100%", "Asprey")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepo_ListKeyset(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	authors := author.NewPostgresRepo(pool, 5*time.Second)
	repo := NewPostgresRepo(pool, 5*time.Second)
	svc := NewService(repo, NewReconciler(repo, author.NewRegistry(authors), nil))

	a, err := authors.Create(ctx, "Joe Dispenza")
	require.NoError(t, err)
	for _, title := range []string{"One", "Two", "Three"} {
		_, err := repo.Create(ctx, NormalizedBook{Title: title, AuthorID: a.ID, AuthorName: a.Name})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, "One", second.Items[0].Title)
}
