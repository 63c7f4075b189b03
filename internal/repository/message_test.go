package repository

import (
	"context"
	"testing"
	"time"

	"devgram/internal/models"
	"devgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_ThreadAndInbox(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	send := func(from, to, content string, offset time.Duration) {
		require.NoError(t, repo.Create(ctx, &models.Message{Sender: from, Receiver: to, Content: content, CreatedAt: base.Add(offset)}))
	}
	send("ada", "bob", "hi bob", 0)
	send("bob", "ada", "hi ada", time.Minute)
	send("cat", "ada", "yo", 2*time.Minute)
	send("bob", "cat", "private", 3*time.Minute)

	thread, err := repo.Thread(ctx, "bob", "ada")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "hi bob", thread[0].Content)
	assert.Equal(t, "hi ada", thread[1].Content)

	inbox, err := repo.ListForUser(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, inbox, 3)
	assert.Equal(t, "yo", inbox[0].Content)
	assert.Equal(t, "hi bob", inbox[2].Content)
}
