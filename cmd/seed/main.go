// Command main loads reference data and optional demo content into the Foodgram database.
package main

import (
	"context"
	"flag"
	"log"

	"foodgram/internal/cache"
	"foodgram/internal/config"
	"foodgram/internal/database"
	"foodgram/internal/repository"
	"foodgram/internal/seed"
	"foodgram/internal/service"
	"foodgram/internal/storage"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of demo users to create")
	recipesPerUser := flag.Int("recipes", 3, "Number of recipes per demo user")
	shouldClean := flag.Bool("clean", false, "Delete all seeded tables before seeding")
	referenceOnly := flag.Bool("reference-only", false, "Load tags and ingredients only")
	flag.Parse()

	log.Println("🌱 Foodgram Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	images, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to configure image storage: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, images)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	fx, err := seed.DefaultFixtures()
	if err != nil {
		log.Fatalf("❌ Fixtures are invalid: %v", err)
	}
	if err := s.Reference(ctx, fx); err != nil {
		log.Fatalf("❌ Reference seeding failed: %v", err)
	}
	log.Printf("Loaded %d tags and %d ingredients\n", len(fx.Tags), len(fx.Ingredients))

	// Cached tag and ingredient listings predate the new rows.
	cache.InitRedis(cfg.RedisURL)
	if rdb := cache.GetClient(); rdb != nil {
		catalog := service.NewCatalogService(repository.NewTagRepository(db), repository.NewIngredientRepository(db), rdb)
		if err := catalog.InvalidateAll(ctx); err != nil {
			log.Printf("Cache invalidation warning: %v", err)
		}
		_ = rdb.Close()
	}

	if *referenceOnly {
		log.Println("✨ Reference data loaded.")
		return
	}

	log.Printf("Target: %d users, %d recipes each, clean=%v\n", *numUsers, *recipesPerUser, *shouldClean)
	if _, err := s.Demo(ctx, seed.Options{NumUsers: *numUsers, RecipesPerUser: *recipesPerUser}); err != nil {
		log.Fatalf("❌ Demo seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo recipes.")
	log.Printf("📧 All demo users have the password: %s\n", seed.DemoPassword)
}
