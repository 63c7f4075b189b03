package database

import (
	"context"
	"path/filepath"
	"testing"

	"devgram/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestConfigurePool(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_SQLiteMigratesEveryModel(t *testing.T) {
	cfg := &config.Config{
		StoreDriver:              config.StoreSQLite,
		SQLitePath:               filepath.Join(t.TempDir(), "devgram.db"),
		DBConnMaxLifetimeMinutes: 5,
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	for _, table := range []string{"users", "posts", "comments", "post_likes", "post_saves", "follows", "messages", "notifications"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.Equal(t, 1, cfg.DBMaxOpenConns)
}

func TestConnect_RejectsMongoDriver(t *testing.T) {
	_, err := Connect(&config.Config{StoreDriver: config.StoreMongo})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.Config{
		DBHost: "db", DBPort: "5432", DBUser: "dev", DBPassword: "pw", DBName: "devgram",
	})
	assert.Equal(t, "host=db port=5432 user=dev password=pw dbname=devgram sslmode=disable", dsn)
}
