package repository

import (
	"context"
	"fmt"

	"foodgram/internal/models"
	"foodgram/internal/observability"

	"gorm.io/gorm"
)

// RecipeFilter narrows recipe listings. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID    uint
	TagSlugs    []string
	FavoritedBy uint
	InCartOf    uint
	Limit       int
	Offset      int
}

// RecipeFields holds the scalar columns written on create and update. An
// empty Image keeps the stored one on update.
type RecipeFields struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
}

// RecipeRepository defines data access for recipes and their ingredient rows.
type RecipeRepository interface {
	Create(ctx context.Context, authorID uint, fields RecipeFields, tagIDs []uint, amounts []models.IngredientAmount) (*models.Recipe, error)
	Update(ctx context.Context, id uint, fields RecipeFields, tagIDs []uint, amounts []models.IngredientAmount) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, authorID uint, fields RecipeFields, tagIDs []uint, amounts []models.IngredientAmount) (*models.Recipe, error) {
	defer observability.TrackQuery("create", "recipes")()

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        fields.Name,
		Text:        fields.Text,
		Image:       fields.Image,
		CookingTime: fields.CookingTime,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureReferences(tx, tagIDs, amounts); err != nil {
			return err
		}
		if err := tx.Omit("Author", "Tags", "IngredientAmounts").Create(recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe.ID, tagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, amounts)
	})
	if err != nil {
		return nil, translateError(err, "Recipe", recipe.ID)
	}
	return recipe, nil
}

// Update rewrites the scalar fields and fully replaces tags and ingredient
// rows in one transaction. Any failure leaves the stored recipe untouched.
func (r *recipeRepository) Update(ctx context.Context, id uint, fields RecipeFields, tagIDs []uint, amounts []models.IngredientAmount) error {
	defer observability.TrackQuery("update", "recipes")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recipe
		if err := tx.Select("id").First(&existing, id).Error; err != nil {
			return err
		}
		if err := ensureReferences(tx, tagIDs, amounts); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         fields.Name,
			"text":         fields.Text,
			"cooking_time": fields.CookingTime,
		}
		if fields.Image != "" {
			updates["image"] = fields.Image
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, id, tagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, id, amounts)
	})
	return translateError(err, "Recipe", id)
}

// Delete removes the recipe together with its ingredient rows, tag links,
// favorites and cart entries.
func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "recipes")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dep := range []interface{}{&models.IngredientAmount{}, &models.Favorite{}, &models.CartItem{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(dep).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateError(err, "Recipe", id)
}

func (r *recipeRepository) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	defer observability.TrackQuery("get", "recipes")()

	var recipe models.Recipe
	if err := preloadDetails(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, translateError(err, "Recipe", id)
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error) {
	defer observability.TrackQuery("list", "recipes")()

	q := r.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		q = q.Where("recipes.id IN (?)", r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	if filter.FavoritedBy != 0 {
		q = q.Where("recipes.id IN (?)", r.db.Table("favorites").Select("recipe_id").Where("user_id = ?", filter.FavoritedBy))
	}
	if filter.InCartOf != 0 {
		q = q.Where("recipes.id IN (?)", r.db.Table("shopping_carts").Select("recipe_id").Where("user_id = ?", filter.InCartOf))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "Recipe", filter)
	}

	var recipes []models.Recipe
	q = preloadDetails(q).Order("recipes.pub_date DESC, recipes.id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, 0, translateError(err, "Recipe", filter)
	}
	return recipes, total, nil
}

// ListByAuthor returns the author's newest recipes; limit < 0 means all.
func (r *recipeRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	q := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("pub_date DESC, id DESC")
	if limit >= 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, translateError(err, "Recipe", authorID)
	}
	return recipes, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", uniqueIDs(authorIDs)).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "Recipe", authorIDs)
	}
	for _, row := range rows {
		out[row.AuthorID] = row.Total
	}
	return out, nil
}

func preloadDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("IngredientAmounts", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_amounts.id") }).
		Preload("IngredientAmounts.Ingredient")
}

// ensureReferences fails with NOT_FOUND when a tag or ingredient id is unknown.
func ensureReferences(tx *gorm.DB, tagIDs []uint, amounts []models.IngredientAmount) error {
	if missing, err := firstMissing(tx, "tags", uniqueIDs(tagIDs)); err != nil {
		return err
	} else if missing != 0 {
		return models.NewNotFoundError("Tag", missing)
	}

	ingredientIDs := make([]uint, 0, len(amounts))
	for _, a := range amounts {
		ingredientIDs = append(ingredientIDs, a.IngredientID)
	}
	if missing, err := firstMissing(tx, "ingredients", uniqueIDs(ingredientIDs)); err != nil {
		return err
	} else if missing != 0 {
		return models.NewNotFoundError("Ingredient", missing)
	}
	return nil
}

func firstMissing(tx *gorm.DB, table string, ids []uint) (uint, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var found []uint
	if err := tx.Table(table).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return 0, err
	}
	present := make(map[uint]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			return id, nil
		}
	}
	return 0, nil
}

func replaceTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		return err
	}
	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, map[string]interface{}{"recipe_id": recipeID, "tag_id": id})
	}
	if err := tx.Table("recipe_tags").Create(&rows).Error; err != nil {
		return fmt.Errorf("link tags: %w", err)
	}
	return nil
}

// replaceIngredients clears and reinserts every ingredient row of the recipe.
// Rows are not merged: each input pair becomes its own row.
func replaceIngredients(tx *gorm.DB, recipeID uint, amounts []models.IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientAmount{}).Error; err != nil {
		return err
	}
	if len(amounts) == 0 {
		return nil
	}
	rows := make([]models.IngredientAmount, 0, len(amounts))
	for _, a := range amounts {
		rows = append(rows, models.IngredientAmount{
			RecipeID:     recipeID,
			IngredientID: a.IngredientID,
			Amount:       a.Amount,
		})
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		return fmt.Errorf("insert ingredient amounts: %w", err)
	}
	return nil
}
