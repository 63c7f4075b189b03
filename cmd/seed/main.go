// Command seed loads demo data into the configured store.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"devgram/internal/bootstrap"
	"devgram/internal/config"
	"devgram/internal/middleware"
	"devgram/internal/seed"
)

func main() {
	fixturePath := flag.String("fixture", "", "YAML fixture to load instead of generated data")
	numUsers := flag.Int("users", 50, "Number of users to generate")
	numPosts := flag.Int("posts", 200, "Number of posts to generate")
	seedValue := flag.Int64("seed", 0, "Generator seed (0 picks one at random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitLogger(cfg.Env, os.Stdout)

	var fx *seed.Fixture
	if *fixturePath != "" {
		log.Printf("Loading fixture %s", *fixturePath)
		fx, err = seed.LoadFixture(*fixturePath)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
	} else {
		log.Printf("Generating %d users and %d posts", *numUsers, *numPosts)
		fx = seed.NewFactory(*seedValue).Build(seed.Options{NumUsers: *numUsers, NumPosts: *numPosts})
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	sum, err := seed.NewSeeder(rt.Repos, cfg.FeatureFlags).Seed(ctx, fx)
	if err != nil {
		rt.Close(ctx)
		log.Fatalf("Seeding failed after %s: %v", sum, err)
	}

	log.Printf("Seeded %s", sum)
	log.Printf("Seeded users share the password %q unless the fixture sets one", seed.DefaultPassword)
}
