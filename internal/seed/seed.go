// Package seed loads reference data and demo content for development and testing.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"time"

	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/repository"
	"foodgram/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded demo user.
const DemoPassword = "password123"

// Options configures demo content generation.
type Options struct {
	NumUsers       int
	RecipesPerUser int
	SkipBcrypt     bool
}

// Seeder writes fixtures and demo content.
type Seeder struct {
	db     *gorm.DB
	images storage.ImageStore
	rng    *rand.Rand
}

// NewSeeder returns a Seeder. images may be nil, in which case demo recipes
// get a placeholder reference instead of a stored file.
func NewSeeder(db *gorm.DB, images storage.ImageStore) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Seeder{db: db, images: images, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Reference upserts tags by slug and inserts missing (name, unit)
// ingredients. Running it twice leaves the same rows.
func (s *Seeder) Reference(ctx context.Context, fx *Fixtures) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range fx.Tags {
			tag := models.Tag{Name: t.Name, Color: t.Color, Slug: t.Slug}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "color"}),
			}).Create(&tag).Error; err != nil {
				return fmt.Errorf("seed tag %s: %w", t.Slug, err)
			}
		}

		for _, it := range fx.Ingredients {
			ing := models.Ingredient{Name: it.Name, MeasurementUnit: it.MeasurementUnit}
			if err := tx.Where(&ing).FirstOrCreate(&ing).Error; err != nil {
				return fmt.Errorf("seed ingredient %s: %w", it.Name, err)
			}
		}
		return nil
	})
}

// Demo creates users with recipes, then wires random favorites, cart
// entries and subscriptions between them through the relation stores.
func (s *Seeder) Demo(ctx context.Context, opts Options) ([]models.User, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Find(&tags).Error; err != nil {
		return nil, err
	}
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	if len(tags) == 0 || len(ingredients) == 0 {
		return nil, fmt.Errorf("reference data missing: load tags and ingredients first")
	}

	password, err := s.passwordHash(opts.SkipBcrypt)
	if err != nil {
		return nil, err
	}

	recipeRepo := repository.NewRecipeRepository(s.db)
	users := make([]models.User, 0, opts.NumUsers)
	var recipeIDs []uint
	for i := 0; i < opts.NumUsers; i++ {
		u := models.User{
			Email:     fmt.Sprintf("demo%d.%s", i+1, gofakeit.Email()),
			Username:  fmt.Sprintf("%s%d", gofakeit.Username(), i+1),
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Password:  password,
		}
		if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)

		for j := 0; j < opts.RecipesPerUser; j++ {
			ref, err := s.demoImage(ctx)
			if err != nil {
				return nil, err
			}
			recipe, err := recipeRepo.Create(ctx, u.ID, repository.RecipeFields{
				Name:        gofakeit.Dessert(),
				Text:        gofakeit.Paragraph(1, 3, 8, " "),
				Image:       ref,
				CookingTime: gofakeit.Number(5, 180),
			}, s.pickTags(tags), s.pickAmounts(ingredients))
			if err != nil {
				return nil, fmt.Errorf("create recipe: %w", err)
			}
			recipeIDs = append(recipeIDs, recipe.ID)
		}
	}

	if err := s.relate(ctx, users, recipeIDs); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "demo content seeded", "users", len(users), "recipes", len(recipeIDs))
	return users, nil
}

func (s *Seeder) relate(ctx context.Context, users []models.User, recipeIDs []uint) error {
	favorites := repository.NewFavoriteStore(s.db)
	carts := repository.NewCartStore(s.db)
	follows := repository.NewFollowStore(s.db)

	for _, u := range users {
		for _, other := range users {
			if other.ID != u.ID && s.rng.Intn(3) == 0 {
				if _, err := follows.Add(ctx, u.ID, other.ID); err != nil {
					return err
				}
			}
		}
		for _, id := range recipeIDs {
			if s.rng.Intn(4) == 0 {
				if _, err := favorites.Add(ctx, u.ID, id); err != nil {
					return err
				}
			}
			if s.rng.Intn(6) == 0 {
				if _, err := carts.Add(ctx, u.ID, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Seeder) passwordHash(skip bool) (string, error) {
	if skip {
		return DemoPassword, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *Seeder) pickTags(tags []models.Tag) []uint {
	n := 1 + s.rng.Intn(min(3, len(tags)))
	ids := make([]uint, 0, n)
	for _, i := range s.rng.Perm(len(tags))[:n] {
		ids = append(ids, tags[i].ID)
	}
	return ids
}

func (s *Seeder) pickAmounts(ingredients []models.Ingredient) []models.IngredientAmount {
	n := min(2+s.rng.Intn(5), len(ingredients))
	amounts := make([]models.IngredientAmount, 0, n)
	for _, i := range s.rng.Perm(len(ingredients))[:n] {
		amounts = append(amounts, models.IngredientAmount{
			IngredientID: ingredients[i].ID,
			Amount:       gofakeit.Number(models.MinValue, 500),
		})
	}
	return amounts
}

// demoImage stores a small solid-color PNG and returns its reference.
func (s *Seeder) demoImage(ctx context.Context) (string, error) {
	name := storage.NewName("png")
	if s.images == nil {
		return name, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	fill := color.RGBA{R: uint8(s.rng.Intn(256)), G: uint8(s.rng.Intn(256)), B: uint8(s.rng.Intn(256)), A: 255}
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return s.images.Save(ctx, name, "image/png", buf.Bytes())
}

// ClearAll removes every row written by the seeder, dependents first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := db.Exec("DELETE FROM recipe_tags").Error; err != nil {
		return err
	}
	for _, m := range []interface{}{
		&models.Favorite{}, &models.CartItem{}, &models.Follow{},
		&models.IngredientAmount{}, &models.Recipe{},
		&models.Ingredient{}, &models.Tag{}, &models.User{},
	} {
		if err := db.Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
