package repository

import (
	"context"
	"testing"

	"devgram/internal/models"
	"devgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_ToggleKeepsCountersInSync(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	cat := testutil.CreateUser(t, db, "cat")

	res, err := repo.Toggle(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowResult{Following: true, Followers: 1, FollowingCount: 1}, res)

	res, err = repo.Toggle(ctx, ada.ID, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FollowingCount)

	res, err = repo.Toggle(ctx, cat.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Followers)

	ok, err := repo.IsFollowing(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err = repo.Toggle(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, res.Following)
	assert.Equal(t, 1, res.Followers)
	assert.Equal(t, 1, res.FollowingCount)

	for _, u := range []*models.User{ada, bob, cat} {
		stored, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		following, err := repo.FollowingIDs(ctx, u.ID)
		require.NoError(t, err)
		followers, err := repo.FollowerIDs(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, len(following), stored.FollowingCount, u.Username)
		assert.Equal(t, len(followers), stored.Followers, u.Username)
	}

	following, err := repo.FollowingIDs(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{cat.ID}, following)
}

func TestFollowRepository_CountersNeverNegative(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")

	for i := 0; i < 5; i++ {
		res, err := repo.Toggle(ctx, ada.ID, bob.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Followers, 0)
		assert.GreaterOrEqual(t, res.FollowingCount, 0)
		assert.Equal(t, i%2 == 0, res.Following)
	}

	var edges int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&edges).Error)
	assert.Equal(t, int64(1), edges)
}
