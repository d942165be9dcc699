package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/docstore"
	"blogapi/internal/models"
)

func stringPtr(s string) *string {
	return &s
}

func newTestPost(id, slug string) *models.Post {
	return &models.Post{
		PostID:     id,
		Slug:       slug,
		Title:      "Title " + id,
		Content:    "Some content for " + id,
		AuthorID:   "author-1",
		AuthorName: "Author",
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(docstore.NewMemoryStore())

	post := newTestPost("p1", "hello-world")
	post.CoverURL = stringPtr("http://img/cover.png")
	require.NoError(t, repo.Create(ctx, post))

	err := repo.Create(ctx, newTestPost("p1", "other"))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	byID, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, post.Title, byID.Title)
	require.NotNil(t, byID.CoverURL)
	assert.Equal(t, "http://img/cover.png", *byID.CoverURL)
	assert.Nil(t, byID.ThumbnailURL)
	assert.Nil(t, byID.UpdatedAt)

	bySlug, err := repo.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "p1", bySlug.PostID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = repo.GetBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(docstore.NewMemoryStore())

	require.NoError(t, repo.Create(ctx, newTestPost("p1", "first")))

	updatedAt := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	err := repo.Update(ctx, "p1", PostChanges{
		Title:     stringPtr("New title"),
		UpdatedAt: updatedAt,
	})
	require.NoError(t, err)

	post, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "New title", post.Title)
	assert.Equal(t, "Some content for p1", post.Content)
	assert.Equal(t, "first", post.Slug)
	require.NotNil(t, post.UpdatedAt)
	assert.True(t, updatedAt.Equal(*post.UpdatedAt))

	err = repo.Update(ctx, "missing", PostChanges{UpdatedAt: updatedAt})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(docstore.NewMemoryStore())

	require.NoError(t, repo.Create(ctx, newTestPost("p1", "first")))

	require.NoError(t, repo.Delete(ctx, "p1"))
	assert.ErrorIs(t, repo.Delete(ctx, "p1"), ErrPostNotFound)

	_, err := repo.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(docstore.NewMemoryStore())

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("p%d", i)
		require.NoError(t, repo.Create(ctx, newTestPost(id, "slug-"+id)))
	}

	seen := map[string]bool{}
	start := ""
	pages := 0
	for {
		page, err := repo.List(ctx, 2, start)
		require.NoError(t, err)
		pages++

		for _, post := range page.Posts {
			assert.False(t, seen[post.PostID], "duplicate %s", post.PostID)
			seen[post.PostID] = true
		}

		if !page.More {
			assert.Empty(t, page.LastKey)
			break
		}
		start = page.LastKey
	}

	assert.Len(t, seen, 5)
	assert.Equal(t, 3, pages)
}
