package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"devgram/internal/models"
	"devgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, repo PostRepository, author string, p models.Post, at time.Time) *models.Post {
	t.Helper()
	p.Author = models.Author{Username: author, Avatar: models.DefaultAvatar}
	p.CreatedAt = at
	require.NoError(t, repo.Create(context.Background(), &p))
	return &p
}

func TestPostRepository_ToggleLikeTwiceRestores(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := createPost(t, repo, "ada", models.Post{Content: "hello"}, time.Now())

	liked, likes, err := repo.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)

	_, likes, err = repo.ToggleLike(ctx, post.ID, "cat")
	require.NoError(t, err)
	assert.Equal(t, 2, likes)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Likes)
	assert.ElementsMatch(t, []string{"bob", "cat"}, got.LikedBy)

	liked, likes, err = repo.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, likes)

	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, got.LikedBy)
	assert.Equal(t, len(got.LikedBy), got.Likes)

	_, _, err = repo.ToggleLike(ctx, "missing", "bob")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostRepository_ToggleSave(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	post := createPost(t, repo, "ada", models.Post{Code: "fmt.Println()"}, time.Now())

	saved, err := repo.ToggleSave(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.True(t, saved)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	got.ForViewer("bob")
	assert.True(t, got.Saved)
	assert.False(t, got.Liked)

	saved, err = repo.ToggleSave(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := createPost(t, repo, "ada", models.Post{Caption: "bye"}, time.Now())
	keep := createPost(t, repo, "ada", models.Post{Caption: "stay"}, time.Now().Add(-time.Minute))
	require.NoError(t, repo.AddComment(ctx, post.ID, &models.Comment{Username: "bob", Text: "nice"}))
	_, _, err := repo.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	_, err = repo.ToggleSave(ctx, post.ID, "bob")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, post.ID))

	_, err = repo.GetByID(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	for _, model := range []interface{}{&models.Comment{}, &models.PostLike{}, &models.PostSave{}} {
		var n int64
		require.NoError(t, db.Model(model).Where("post_id = ?", post.ID).Count(&n).Error)
		assert.Zero(t, n)
	}

	list, err := repo.List(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	err = repo.Delete(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostRepository_ListNewestFirstWithComments(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	old := createPost(t, repo, "ada", models.Post{Content: "old"}, base)
	createPost(t, repo, "bob", models.Post{Content: "mid"}, base.Add(time.Minute))
	createPost(t, repo, "ada", models.Post{Content: "new"}, base.Add(2*time.Minute))

	require.NoError(t, repo.AddComment(ctx, old.ID, &models.Comment{Username: "bob", Text: "first", CreatedAt: base.Add(3 * time.Minute)}))
	require.NoError(t, repo.AddComment(ctx, old.ID, &models.Comment{Username: "cat", Text: "second", CreatedAt: base.Add(4 * time.Minute)}))

	list, err := repo.List(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].Content)
	assert.Equal(t, "old", list[2].Content)
	require.Len(t, list[2].Comments, 2)
	assert.Equal(t, "first", list[2].Comments[0].Text)
	assert.NotNil(t, list[0].LikedBy)
	assert.NotNil(t, list[0].Comments)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mid", page[0].Content)

	mine, err := repo.ListByAuthor(ctx, "ada", 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "new", mine[0].Content)

	comments, err := repo.ListComments(ctx, old.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	_, err = repo.ListComments(ctx, "missing")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	err = repo.AddComment(ctx, "missing", &models.Comment{Username: "bob", Text: "x"})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostRepository_Search(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	byCaption := createPost(t, repo, "ada", models.Post{Caption: "Learning Rust"}, base)
	byContent := createPost(t, repo, "bob", models.Post{Content: "rust borrow checker"}, base.Add(time.Minute))
	byComment := createPost(t, repo, "cat", models.Post{Content: "lunch"}, base.Add(2*time.Minute))
	createPost(t, repo, "cat", models.Post{Content: "golang"}, base.Add(3*time.Minute))
	require.NoError(t, repo.AddComment(ctx, byComment.ID, &models.Comment{Username: "ada", Text: "try RUST"}))

	found, err := repo.Search(ctx, "rust", 10)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, byComment.ID, found[0].ID)
	assert.Equal(t, byContent.ID, found[1].ID)
	assert.Equal(t, byCaption.ID, found[2].ID)

	for i := 0; i < 12; i++ {
		createPost(t, repo, "ada", models.Post{Content: fmt.Sprintf("spam %d", i)}, base)
	}
	found, err = repo.Search(ctx, "spam", 100)
	require.NoError(t, err)
	assert.Len(t, found, SearchLimit)
}

func TestPostRepository_Similar(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	source := createPost(t, repo, "ada", models.Post{Content: "goroutines", Language: "go"}, base)
	createPost(t, repo, "bob", models.Post{Content: "unrelated", Language: "python"}, base)
	for i := 0; i < 8; i++ {
		createPost(t, repo, "bob", models.Post{Content: "snippet", Language: "go"}, base.Add(time.Duration(i)*time.Minute))
	}
	contentMatch := createPost(t, repo, "cat", models.Post{Content: "I love GOROUTINES"}, base.Add(time.Hour))

	similar, err := repo.Similar(ctx, source, 100)
	require.NoError(t, err)
	require.Len(t, similar, SimilarLimit)
	assert.Equal(t, contentMatch.ID, similar[0].ID)
	for _, p := range similar {
		assert.NotEqual(t, source.ID, p.ID)
		assert.NotEqual(t, "python", p.Language)
	}

	lonely := createPost(t, repo, "ada", models.Post{Image: "/media/x.webp"}, base)
	similar, err = repo.Similar(ctx, lonely, 6)
	require.NoError(t, err)
	assert.Empty(t, similar)
}
