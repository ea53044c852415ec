package repository

import (
	"context"

	"foodgram/internal/models"
	"foodgram/internal/observability"

	"gorm.io/gorm"
)

// ShoppingListRepository aggregates ingredient amounts across a user's cart.
type ShoppingListRepository interface {
	Aggregate(ctx context.Context, userID uint) ([]models.ShoppingListItem, error)
}

type shoppingListRepository struct {
	db *gorm.DB
}

// NewShoppingListRepository creates a new shopping list repository
func NewShoppingListRepository(db *gorm.DB) ShoppingListRepository {
	return &shoppingListRepository{db: db}
}

// Aggregate sums amounts grouped by (ingredient name, measurement unit), not
// by ingredient id, ordered by name then unit.
func (r *shoppingListRepository) Aggregate(ctx context.Context, userID uint) ([]models.ShoppingListItem, error) {
	defer observability.TrackQuery("aggregate", "shopping_carts")()

	var items []models.ShoppingListItem
	err := r.db.WithContext(ctx).
		Table("shopping_carts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_amounts.amount) AS total").
		Joins("JOIN ingredient_amounts ON ingredient_amounts.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, translateError(err, "User", userID)
	}
	return items, nil
}
