package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_Search(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	gopher := e.user(t, "gopher")
	e.user(t, "rustacean")

	_, err := e.post.Create(ctx, gopher, CreatePostInput{Caption: "Gopher tricks", Content: "channels"})
	require.NoError(t, err)
	_, err = e.post.Create(ctx, gopher, CreatePostInput{Content: "unrelated"})
	require.NoError(t, err)

	t.Run("all", func(t *testing.T) {
		res, err := e.search.Search(ctx, gopher, "GOPHER", "")
		require.NoError(t, err)
		require.Len(t, res.Users, 1)
		assert.Equal(t, "gopher", res.Users[0].Username)
		assert.Empty(t, res.Users[0].Email)
		require.Len(t, res.Posts, 1)
		assert.Equal(t, "Gopher tricks", res.Posts[0].Caption)
	})

	t.Run("users only", func(t *testing.T) {
		res, err := e.search.Search(ctx, gopher, "rust", SearchUsers)
		require.NoError(t, err)
		assert.Len(t, res.Users, 1)
		assert.NotNil(t, res.Posts)
		assert.Empty(t, res.Posts)
	})

	t.Run("posts only", func(t *testing.T) {
		res, err := e.search.Search(ctx, gopher, "channels", SearchPosts)
		require.NoError(t, err)
		assert.Empty(t, res.Users)
		assert.Len(t, res.Posts, 1)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := e.search.Search(ctx, gopher, "  ", SearchAll)
		assertValidationError(t, err)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := e.search.Search(ctx, gopher, "go", "tags")
		assertValidationError(t, err)
	})
}
