package service

import (
	"context"
	"testing"

	"devgram/internal/featureflags"
	"devgram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreateValidation(t *testing.T) {
	e := newTestEnv(t, "")
	alice := e.user(t, "alice")

	_, err := e.post.Create(context.Background(), alice, CreatePostInput{Caption: "   ", Code: "\n\t"})
	assertValidationError(t, err)
}

func TestPostService_CreateNotifiesMentions(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	eve := e.user(t, "eve")
	e.user(t, "dave")

	post, err := e.post.Create(ctx, eve, CreatePostInput{Content: "hi @dave and @eve and @nobody", Language: " Go "})
	require.NoError(t, err)
	assert.Equal(t, "go", post.Language)
	assert.Equal(t, "eve", post.Author.Username)
	assert.Empty(t, post.LikedBy)
	assert.Empty(t, post.Comments)

	mentions := e.inboxOfType(t, "dave", models.NotificationMention)
	require.Len(t, mentions, 1)
	assert.Equal(t, models.ContentMentionedPost, mentions[0].Content)
	assert.Equal(t, post.ID, mentions[0].PostID)
	assert.Equal(t, "eve", mentions[0].Sender)

	assert.Empty(t, e.inbox(t, "eve"))
}

func TestPostService_MentionDedupeFlag(t *testing.T) {
	tests := []struct {
		name  string
		flags string
		want  int
	}{
		{"repeats kept by default", "", 2},
		{"dedupe enabled", featureflags.DedupeMentions + "=on", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, tt.flags)
			eve := e.user(t, "eve")
			e.user(t, "dave")

			_, err := e.post.Create(context.Background(), eve, CreatePostInput{Caption: "@dave", Content: "ping @dave"})
			require.NoError(t, err)
			assert.Len(t, e.inboxOfType(t, "dave", models.NotificationMention), tt.want)
		})
	}
}

func TestPostService_DeleteRequiresAuthor(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	post, err := e.post.Create(ctx, alice, CreatePostInput{Content: "mine"})
	require.NoError(t, err)

	assertCode(t, e.post.Delete(ctx, bob, post.ID), models.CodeForbidden)

	_, err = e.post.Get(ctx, bob, post.ID)
	require.NoError(t, err)

	require.NoError(t, e.post.Delete(ctx, alice, post.ID))
	_, err = e.post.Get(ctx, alice, post.ID)
	assertCode(t, err, models.CodeNotFound)

	assertCode(t, e.post.Delete(ctx, alice, post.ID), models.CodeNotFound)
}

func TestPostService_ToggleLike(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	post, err := e.post.Create(ctx, alice, CreatePostInput{Content: "like me"})
	require.NoError(t, err)

	res, err := e.post.ToggleLike(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: true, Likes: 1}, res)

	got, err := e.post.Get(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.True(t, got.Liked)
	assert.Equal(t, []string{"bob"}, got.LikedBy)
	assert.Equal(t, len(got.LikedBy), got.Likes)

	res, err = e.post.ToggleLike(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: false, Likes: 0}, res)

	got, err = e.post.Get(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.False(t, got.Liked)
	assert.Empty(t, got.LikedBy)
	assert.Zero(t, got.Likes)

	// Only the like, not the unlike, produced a notification.
	assert.Len(t, e.inboxOfType(t, "alice", models.NotificationLike), 1)

	_, err = e.post.ToggleLike(ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Len(t, e.inboxOfType(t, "alice", models.NotificationLike), 1)

	_, err = e.post.ToggleLike(ctx, bob, models.NewID())
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_ApplyAction(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	post, err := e.post.Create(ctx, alice, CreatePostInput{Caption: "act"})
	require.NoError(t, err)

	got, err := e.post.ApplyAction(ctx, bob, post.ID, ActionSave, "")
	require.NoError(t, err)
	assert.True(t, got.Saved)

	got, err = e.post.ApplyAction(ctx, bob, post.ID, ActionComment, "nice")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "nice", got.Comments[0].Text)
	assert.Equal(t, "bob", got.Comments[0].Username)

	got, err = e.post.ApplyAction(ctx, bob, post.ID, ActionLike, "")
	require.NoError(t, err)
	assert.True(t, got.Liked)
	assert.Equal(t, 1, got.Likes)

	_, err = e.post.ApplyAction(ctx, bob, post.ID, "share", "")
	assertValidationError(t, err)
}

func TestPostService_Feeds(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	for _, c := range []string{"one", "two", "three"} {
		_, err := e.post.Create(ctx, alice, CreatePostInput{Content: c, Language: "go"})
		require.NoError(t, err)
	}
	other, err := e.post.Create(ctx, bob, CreatePostInput{Content: "rust", Language: "rust"})
	require.NoError(t, err)

	all, err := e.post.List(ctx, bob, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := e.post.ListByAuthor(ctx, bob, "alice", 2, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, p := range mine {
		assert.Equal(t, "alice", p.Author.Username)
	}

	_, err = e.post.ListByAuthor(ctx, bob, "nobody", 0, 0)
	assertCode(t, err, models.CodeNotFound)

	similar, err := e.post.Similar(ctx, bob, mine[0].ID)
	require.NoError(t, err)
	assert.Len(t, similar, 2)
	for _, p := range similar {
		assert.NotEqual(t, mine[0].ID, p.ID)
		assert.NotEqual(t, other.ID, p.ID)
	}
}
