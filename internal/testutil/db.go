// Package testutil provides shared test databases and fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"

	"foodgram/internal/database"
	"foodgram/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory SQLite database. The pool is capped
// at one connection so every goroutine sees the same database; concurrent
// transactions queue on that connection.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser persists a user with fake identity fields.
func CreateUser(t testing.TB, db *gorm.DB, overrides ...func(*models.User)) *models.User {
	t.Helper()
	u := &models.User{
		Email:     gofakeit.Email(),
		Username:  fmt.Sprintf("%s_%d", gofakeit.Username(), gofakeit.Number(1, 1_000_000)),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Password:  "not-a-real-hash",
	}
	for _, o := range overrides {
		o(u)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateTag persists a tag with a random color.
func CreateTag(t testing.TB, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug, Color: gofakeit.HexColor()}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	return tag
}

// CreateIngredient persists an ingredient.
func CreateIngredient(t testing.TB, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return ing
}

// Amount is an (ingredient, quantity) pair for CreateRecipe.
type Amount struct {
	IngredientID uint
	Amount       int
}

// CreateRecipe persists a recipe for author with the given ingredient amounts and tags.
func CreateRecipe(t testing.TB, db *gorm.DB, author *models.User, amounts []Amount, tags ...*models.Tag) *models.Recipe {
	t.Helper()
	r := &models.Recipe{
		AuthorID:    author.ID,
		Name:        gofakeit.Dessert(),
		Text:        gofakeit.Sentence(12),
		Image:       "recipes/images/" + gofakeit.UUID() + ".png",
		CookingTime: gofakeit.Number(models.MinValue, 120),
	}
	for _, tag := range tags {
		r.Tags = append(r.Tags, *tag)
	}
	for _, a := range amounts {
		r.IngredientAmounts = append(r.IngredientAmounts, models.IngredientAmount{IngredientID: a.IngredientID, Amount: a.Amount})
	}
	if err := db.Omit("Tags.*").Create(r).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return r
}
