package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name string `json:"name"`
}

func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
		mr.Close()
	})
	return mr
}

func TestAside_FetchesOnceThenHits(t *testing.T) {
	mr := withRedis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			dest.Name = "gopher"
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &first, time.Minute, fetch(&first)))
	assert.Equal(t, "gopher", first.Name)
	assert.True(t, mr.Exists("thing:1"))

	var second cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &second, time.Minute, fetch(&second)))
	assert.Equal(t, "gopher", second.Name)
	assert.Equal(t, 1, calls)
}

func TestAside_ErrorIsNotCached(t *testing.T) {
	mr := withRedis(t)
	boom := errors.New("boom")

	var dest cachedThing
	err := Aside(context.Background(), "thing:2", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("thing:2"))
}

func TestAside_NoClientPassesThrough(t *testing.T) {
	SetClient(nil)
	var dest cachedThing
	require.NoError(t, Aside(context.Background(), "thing:3", &dest, time.Minute, func() error {
		dest.Name = "direct"
		return nil
	}))
	assert.Equal(t, "direct", dest.Name)
}

func TestInvalidateUser(t *testing.T) {
	mr := withRedis(t)
	require.NoError(t, mr.Set(UserKey("a"), "{}"))
	require.NoError(t, mr.Set(UserKey("b"), "{}"))

	InvalidateUser(context.Background(), "a", "b")
	assert.False(t, mr.Exists(UserKey("a")))
	assert.False(t, mr.Exists(UserKey("b")))
}
