package repository

import (
	"context"
	"strings"

	"foodgram/internal/models"

	"gorm.io/gorm"
)

// IngredientRepository defines read access to ingredients.
type IngredientRepository interface {
	List(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetByID(ctx context.Context, id uint) (*models.Ingredient, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

// List returns ingredients ordered by name, optionally restricted to a
// case-insensitive name prefix.
func (r *ingredientRepository) List(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	q := r.db.WithContext(ctx).Order("name, id")
	if p := strings.TrimSpace(namePrefix); p != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(p))+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, translateError(err, "Ingredient", namePrefix)
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, translateError(err, "Ingredient", id)
	}
	return &ingredient, nil
}
