// Command main seeds categories and optional demo content, and sweeps
// comments orphaned by interrupted article deletes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/repository"
	"inkwell/internal/seed"
)

func main() {
	categoriesFile := flag.String("categories", "", "YAML file with categories (defaults to the built-in list)")
	numUsers := flag.Int("users", 0, "Number of demo users to create")
	numArticles := flag.Int("articles", 0, "Number of demo articles to create")
	numComments := flag.Int("comments", 3, "Comments per demo article")
	sweep := flag.Bool("sweep-orphans", false, "Delete comments whose article no longer exists")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	seeds := seed.DefaultCategories
	if *categoriesFile != "" {
		seeds, err = seed.LoadCategoriesFile(*categoriesFile)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *categoriesFile, err)
		}
	}
	// Seeding through the cache drops category entries a running server holds.
	rdb := database.ConnectRedis(cfg.RedisURL)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	categoryRepo := repository.NewCachedCategoryRepository(store.Categories(), cache.New(rdb), cfg.CategoryCacheTTL)
	categories, err := seed.Categories(ctx, categoryRepo, seeds)
	if err != nil {
		log.Fatalf("Category seeding failed: %v", err)
	}
	log.Printf("Categories ready: %d", len(categories))

	if *numUsers > 0 {
		if _, err := seed.Demo(ctx, store, seed.DemoOptions{
			Users:              *numUsers,
			Articles:           *numArticles,
			CommentsPerArticle: *numComments,
		}); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
	}

	if *sweep {
		removed, err := seed.SweepOrphans(ctx, store.Comments())
		if err != nil {
			log.Fatalf("Orphan sweep failed: %v", err)
		}
		log.Printf("Removed %d orphaned comments", removed)
	}
}
