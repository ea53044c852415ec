package service

import (
	"context"

	"foodgram/internal/cache"
	"foodgram/internal/models"
	"foodgram/internal/repository"

	"github.com/redis/go-redis/v9"
)

// CatalogService serves tags and ingredients. Both are reference data and
// go through the Redis cache when a client is configured.
type CatalogService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	rdb         *redis.Client
}

// NewCatalogService returns a new CatalogService. rdb may be nil.
func NewCatalogService(tags repository.TagRepository, ingredients repository.IngredientRepository, rdb *redis.Client) *CatalogService {
	return &CatalogService{tags: tags, ingredients: ingredients, rdb: rdb}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, s.rdb, "tags", cache.TagListKey, &tags, cache.TagTTL, func() error {
		var err error
		tags, err = s.tags.List(ctx)
		return err
	})
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, err
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag *models.Tag
	err := cache.Aside(ctx, s.rdb, "tag", cache.TagKey(id), &tag, cache.TagTTL, func() error {
		var err error
		tag, err = s.tags.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// ignoring case. An empty prefix lists everything.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	var items []models.Ingredient
	err := cache.Aside(ctx, s.rdb, "ingredients", cache.IngredientSearchKey(prefix), &items, cache.IngredientTTL, func() error {
		var err error
		items, err = s.ingredients.List(ctx, prefix)
		return err
	})
	if items == nil {
		items = []models.Ingredient{}
	}
	return items, err
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var item *models.Ingredient
	err := cache.Aside(ctx, s.rdb, "ingredient", cache.IngredientKey(id), &item, cache.IngredientTTL, func() error {
		var err error
		item, err = s.ingredients.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// InvalidateTags drops the cached tag listing and the given tag entries.
func (s *CatalogService) InvalidateTags(ctx context.Context, ids ...uint) {
	keys := []string{cache.TagListKey}
	for _, id := range ids {
		keys = append(keys, cache.TagKey(id))
	}
	cache.Invalidate(ctx, s.rdb, keys...)
}

// InvalidateAll drops every cached tag and ingredient entry.
func (s *CatalogService) InvalidateAll(ctx context.Context) error {
	cache.Invalidate(ctx, s.rdb, cache.TagListKey)
	for _, pattern := range []string{cache.TagPattern, cache.IngredientSearchPattern, cache.IngredientPattern} {
		if err := cache.InvalidatePattern(ctx, s.rdb, pattern); err != nil {
			return err
		}
	}
	return nil
}
