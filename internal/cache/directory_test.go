package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"devgram/internal/models"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemcache struct {
	mu      sync.Mutex
	items   map[string]*memcache.Item
	failGet bool
}

func newFakeMemcache() *fakeMemcache {
	return &fakeMemcache{items: make(map[string]*memcache.Item)}
}

func (f *fakeMemcache) GetMulti(keys []string) (map[string]*memcache.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, errors.New("connection refused")
	}
	out := make(map[string]*memcache.Item)
	for _, k := range keys {
		if it, ok := f.items[k]; ok {
			out[k] = it
		}
	}
	return out, nil
}

func (f *fakeMemcache) Set(item *memcache.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.Key] = item
	return nil
}

func (f *fakeMemcache) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[key]; !ok {
		return memcache.ErrCacheMiss
	}
	delete(f.items, key)
	return nil
}

type countingLoader struct {
	users map[string]models.User
	calls [][]string
}

func (l *countingLoader) load(_ context.Context, usernames []string) ([]models.User, error) {
	l.calls = append(l.calls, append([]string(nil), usernames...))
	var out []models.User
	for _, u := range usernames {
		if user, ok := l.users[u]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func newLoader() *countingLoader {
	return &countingLoader{users: map[string]models.User{
		"alice": {ID: "1", Username: "alice", Avatar: "/alice.png", Password: "hash", NotificationSettings: models.DefaultNotificationSettings()},
		"bob":   {ID: "2", Username: "bob", Avatar: "/bob.png"},
	}}
}

func TestUserDirectory_MissThenHit(t *testing.T) {
	mc := newFakeMemcache()
	loader := newLoader()
	dir := NewUserDirectory(mc, loader.load)
	ctx := context.Background()

	users, err := dir.Lookup(ctx, []string{"alice", "bob", "ghost", "alice"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "1", users["alice"].ID)
	require.Len(t, loader.calls, 1)
	assert.ElementsMatch(t, []string{"alice", "bob", "ghost"}, loader.calls[0])

	users, err = dir.Lookup(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "/bob.png", users["bob"].Avatar)
	assert.True(t, users["alice"].NotificationSettings.Mentions)
	assert.Empty(t, users["alice"].Password)
	assert.Len(t, loader.calls, 1, "second lookup must be served from memcached")
}

func TestUserDirectory_Invalidate(t *testing.T) {
	mc := newFakeMemcache()
	loader := newLoader()
	dir := NewUserDirectory(mc, loader.load)
	ctx := context.Background()

	_, err := dir.Get(ctx, "alice")
	require.NoError(t, err)
	dir.Invalidate("alice")
	dir.Invalidate("never-cached")

	_, err = dir.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, loader.calls, 2)
}

func TestUserDirectory_MemcacheDownFallsBackToStore(t *testing.T) {
	mc := newFakeMemcache()
	mc.failGet = true
	loader := newLoader()
	dir := NewUserDirectory(mc, loader.load)

	user, err := dir.Get(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "2", user.ID)
}

func TestUserDirectory_WithoutMemcache(t *testing.T) {
	loader := newLoader()
	dir := NewUserDirectory(nil, loader.load)

	user, err := dir.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)

	users, err := dir.Lookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Len(t, loader.calls, 1)
}
