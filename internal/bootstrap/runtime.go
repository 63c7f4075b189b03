// Package bootstrap connects the backends a DevGram process runs on.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"devgram/internal/cache"
	"devgram/internal/config"
	"devgram/internal/database"
	"devgram/internal/docstore"
	"devgram/internal/middleware"
	"devgram/internal/notifications"
	"devgram/internal/repository"
	"devgram/internal/server"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// connectBudget bounds how long startup waits for every backend together.
const connectBudget = 10 * time.Second

// Runtime owns the backend connections for one process.
type Runtime struct {
	Repos repository.Set
	// SQL is set for the postgres and sqlite drivers.
	SQL *gorm.DB
	// Docs is set for the mongo driver.
	Docs     *docstore.Store
	Redis    *redis.Client
	Memcache cache.MemcacheClient
	Relay    *notifications.Relay
}

// InitRuntime connects the store selected by STORE_DRIVER plus the optional
// Redis, memcached and AMQP backends. Only the store is mandatory; the
// others degrade to disabled when unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	ctx, cancel := context.WithTimeout(ctx, connectBudget)
	defer cancel()

	rt := &Runtime{}
	if err := rt.connectStore(ctx, cfg); err != nil {
		return nil, err
	}

	rt.Redis = cache.InitRedis(ctx, cfg.RedisURL)

	if mc := cache.NewMemcacheClient(cfg.MemcachedAddrs()); mc != nil {
		rt.Memcache = mc
		middleware.Logger.Info("memcached user directory enabled", slog.Int("servers", len(cfg.MemcachedAddrs())))
	}

	if cfg.AMQPURL != "" {
		relay, err := notifications.DialRelay(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			middleware.Logger.Warn("AMQP unavailable, notifications stay in-process", slog.String("error", err.Error()))
		} else {
			rt.Relay = relay
		}
	}

	return rt, nil
}

func (rt *Runtime) connectStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("document store connection failed: %w", err)
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return fmt.Errorf("failed to create indexes: %w", err)
		}
		rt.Docs = store
		rt.Repos = store.Repositories()
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		rt.SQL = db
		rt.Repos = repository.NewSet(db)
	}
	return nil
}

// Ping checks the primary store.
func (rt *Runtime) Ping(ctx context.Context) error {
	if rt.Docs != nil {
		return rt.Docs.Ping(ctx)
	}
	return database.Ping(ctx, rt.SQL)
}

// ServerDeps hands the connections to server.New.
func (rt *Runtime) ServerDeps() server.Deps {
	deps := server.Deps{
		Repos: rt.Repos,
		Redis: rt.Redis,
		Relay: rt.Relay,
		Ping:  rt.Ping,
	}
	if rt.Memcache != nil {
		deps.Memcache = rt.Memcache
	}
	return deps
}

// Close releases every connection. Errors are logged, not returned.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.Relay != nil {
		if err := rt.Relay.Close(); err != nil {
			middleware.Logger.Warn("closing AMQP relay", slog.String("error", err.Error()))
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			middleware.Logger.Warn("closing redis", slog.String("error", err.Error()))
		}
		cache.SetClient(nil)
	}
	if rt.Docs != nil {
		if err := rt.Docs.Close(ctx); err != nil {
			middleware.Logger.Warn("closing document store", slog.String("error", err.Error()))
		}
	}
	if rt.SQL != nil {
		if sqlDB, err := rt.SQL.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
