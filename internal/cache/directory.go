package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"devgram/internal/middleware"
	"devgram/internal/models"
	"devgram/internal/observability"

	"github.com/bradfitz/gomemcache/memcache"
)

const (
	directoryKeyPrefix = "devgram:user:"
	directoryTTL       = 300 // seconds
)

// MemcacheClient is the subset of *memcache.Client used by UserDirectory.
type MemcacheClient interface {
	GetMulti(keys []string) (map[string]*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

// DirectoryLoader reads users by username from the primary store.
type DirectoryLoader func(ctx context.Context, usernames []string) ([]models.User, error)

// UserDirectory resolves usernames to users for mention fan-out and
// notification enrichment. Hits come from memcached; misses fall back to the
// store and are written back.
type UserDirectory struct {
	mc   MemcacheClient
	load DirectoryLoader
}

// directoryEntry is what gets cached: identity, avatar and preferences only.
type directoryEntry struct {
	ID                   string                      `json:"id"`
	Username             string                      `json:"username"`
	FullName             string                      `json:"fullName"`
	Avatar               string                      `json:"avatar"`
	NotificationSettings models.NotificationSettings `json:"notificationSettings"`
}

// NewMemcacheClient connects to servers, or returns nil when none are
// configured.
func NewMemcacheClient(servers []string) *memcache.Client {
	if len(servers) == 0 {
		return nil
	}
	return memcache.New(servers...)
}

// NewUserDirectory builds a directory. A nil mc disables caching.
func NewUserDirectory(mc MemcacheClient, load DirectoryLoader) *UserDirectory {
	return &UserDirectory{mc: mc, load: load}
}

func directoryKey(username string) string {
	return directoryKeyPrefix + username
}

// Lookup returns the users that exist among usernames, keyed by username.
func (d *UserDirectory) Lookup(ctx context.Context, usernames []string) (map[string]*models.User, error) {
	result := make(map[string]*models.User, len(usernames))
	wanted := uniqueNonEmpty(usernames)
	if len(wanted) == 0 {
		return result, nil
	}

	missing := wanted
	if d.mc != nil {
		keys := make([]string, len(wanted))
		for i, u := range wanted {
			keys[i] = directoryKey(u)
		}
		items, err := d.mc.GetMulti(keys)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "memcached lookup failed", slog.String("error", err.Error()))
			items = nil
		}
		missing = nil
		for _, u := range wanted {
			item, ok := items[directoryKey(u)]
			if !ok {
				missing = append(missing, u)
				continue
			}
			var entry directoryEntry
			if err := json.Unmarshal(item.Value, &entry); err != nil {
				missing = append(missing, u)
				continue
			}
			result[u] = entry.user()
		}
		observability.CacheLookups.WithLabelValues("memcached", "hit").Add(float64(len(wanted) - len(missing)))
		observability.CacheLookups.WithLabelValues("memcached", "miss").Add(float64(len(missing)))
	}

	if len(missing) == 0 {
		return result, nil
	}

	users, err := d.load(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i := range users {
		u := users[i]
		u.Password = ""
		result[u.Username] = &u
		d.store(ctx, &u)
	}
	return result, nil
}

// Get resolves a single username, returning nil when the user does not exist.
func (d *UserDirectory) Get(ctx context.Context, username string) (*models.User, error) {
	users, err := d.Lookup(ctx, []string{username})
	if err != nil {
		return nil, err
	}
	return users[username], nil
}

// Invalidate drops a cached entry after a profile or settings change.
func (d *UserDirectory) Invalidate(username string) {
	if d.mc == nil {
		return
	}
	if err := d.mc.Delete(directoryKey(username)); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		middleware.Logger.Warn("memcached delete failed", slog.String("username", username), slog.String("error", err.Error()))
	}
}

func (d *UserDirectory) store(ctx context.Context, u *models.User) {
	if d.mc == nil {
		return
	}
	raw, err := json.Marshal(directoryEntry{
		ID:                   u.ID,
		Username:             u.Username,
		FullName:             u.FullName,
		Avatar:               u.Avatar,
		NotificationSettings: u.NotificationSettings,
	})
	if err != nil {
		return
	}
	if err := d.mc.Set(&memcache.Item{Key: directoryKey(u.Username), Value: raw, Expiration: directoryTTL}); err != nil {
		middleware.Logger.WarnContext(ctx, "memcached write failed", slog.String("error", err.Error()))
	}
}

func (e directoryEntry) user() *models.User {
	return &models.User{
		ID:                   e.ID,
		Username:             e.Username,
		FullName:             e.FullName,
		Avatar:               e.Avatar,
		NotificationSettings: e.NotificationSettings,
	}
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
