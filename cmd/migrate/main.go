// Command migrate prepares the configured store's schema without starting the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"devgram/internal/config"
	"devgram/internal/database"
	"devgram/internal/docstore"
	"devgram/internal/middleware"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.InitLogger(cfg.Env, os.Stdout)
	ctx := context.Background()

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	if cmd != "up" && cmd != "status" {
		return usage()
	}

	if cfg.StoreDriver == config.StoreMongo {
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close(ctx) }()
		if cmd == "status" {
			log.Printf("driver=mongo database=%s (collections are created on first write)", cfg.MongoDatabase)
			return nil
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		log.Println("mongo indexes ensured")
		return nil
	}

	if cmd == "up" {
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		log.Println("schema migrated")
		return printStatus(db, cfg.StoreDriver)
	}

	db, err := openSQL(cfg)
	if err != nil {
		return err
	}
	return printStatus(db, cfg.StoreDriver)
}

// openSQL connects without migrating so status reports the current state.
func openSQL(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := database.Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return database.Open(dialector)
}

func printStatus(db *gorm.DB, driver string) error {
	missing := 0
	for _, model := range database.PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse model: %w", err)
		}
		state := "present"
		if !db.Migrator().HasTable(model) {
			state = "missing"
			missing++
		}
		log.Printf("driver=%s table=%s %s", driver, stmt.Schema.Table, state)
	}
	if missing > 0 {
		log.Printf("%d tables missing; run `migrate up`", missing)
	}
	return nil
}
