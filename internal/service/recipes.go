package service

import (
	"context"
	"fmt"

	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/observability"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
	"foodgram/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// IngredientInput is one (ingredient, amount) pair of a recipe payload.
type IngredientInput struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"min=1,max=32000"`
}

// RecipeInput is the create/update payload. Image is a base64 data URI; it
// is required on create and optional on update.
type RecipeInput struct {
	Name        string            `json:"name" validate:"required,max=200"`
	Text        string            `json:"text" validate:"required"`
	CookingTime int               `json:"cooking_time" validate:"min=1,max=32000"`
	Tags        []uint            `json:"tags" validate:"required,min=1,dive,required"`
	Ingredients []IngredientInput `json:"ingredients" validate:"required,min=1,dive"`
	Image       string            `json:"image"`
}

// RecipeQuery holds the list filters as the viewer asked for them.
type RecipeQuery struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Limit            int
	Offset           int
}

// RecipeService runs the recipe lifecycle: validation, image assets,
// permission checks and persistence.
type RecipeService struct {
	recipes     repository.RecipeRepository
	users       repository.UserRepository
	images      storage.ImageStore
	projections *ProjectionService
}

// NewRecipeService returns a new RecipeService.
func NewRecipeService(recipes repository.RecipeRepository, users repository.UserRepository, images storage.ImageStore, projections *ProjectionService) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		users:       users,
		images:      images,
		projections: projections,
	}
}

// validateInput checks field constraints and rejects repeated ingredient ids.
// Repeated tag ids are dropped.
func validateInput(in *RecipeInput) ([]uint, []models.IngredientAmount, error) {
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}

	seen := make(map[uint]struct{}, len(in.Ingredients))
	amounts := make([]models.IngredientAmount, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		if _, dup := seen[ing.ID]; dup {
			return nil, nil, models.NewValidationError(fmt.Sprintf("ingredient %d is listed more than once", ing.ID))
		}
		seen[ing.ID] = struct{}{}
		amounts = append(amounts, models.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount})
	}

	tagSeen := make(map[uint]struct{}, len(in.Tags))
	tagIDs := make([]uint, 0, len(in.Tags))
	for _, id := range in.Tags {
		if _, dup := tagSeen[id]; dup {
			continue
		}
		tagSeen[id] = struct{}{}
		tagIDs = append(tagIDs, id)
	}
	return tagIDs, amounts, nil
}

func (s *RecipeService) saveImage(ctx context.Context, uri string) (string, error) {
	img, err := storage.DecodeDataURI(uri)
	if err != nil {
		return "", models.NewValidationError(fmt.Sprintf("image: %v", err))
	}
	ref, err := s.images.Save(ctx, storage.NewName(img.Ext), img.ContentType, img.Data)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return ref, nil
}

func (s *RecipeService) releaseImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to release image", "ref", ref, "error", err)
	}
}

// CreateRecipe validates in, stores its image and persists the recipe.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, in RecipeInput) (view *RecipeView, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "recipe.create",
		attribute.Int64("author_id", int64(authorID)))
	defer func() { observability.EndSpan(span, err) }()

	tagIDs, amounts, err := validateInput(&in)
	if err != nil {
		return nil, err
	}
	if in.Image == "" {
		return nil, models.NewValidationError("image is required")
	}

	ref, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipes.Create(ctx, authorID, repository.RecipeFields{
		Name:        in.Name,
		Text:        in.Text,
		Image:       ref,
		CookingTime: in.CookingTime,
	}, tagIDs, amounts)
	if err != nil {
		s.releaseImage(ctx, ref)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	return s.GetRecipe(ctx, authorID, recipe.ID)
}

// UpdateRecipe replaces the recipe's fields, tags and ingredients. Only the
// author or a staff user may update. A new image replaces the stored one
// after the database write commits.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actorID, recipeID uint, in RecipeInput) (view *RecipeView, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "recipe.update",
		attribute.Int64("recipe_id", int64(recipeID)))
	defer func() { observability.EndSpan(span, err) }()

	existing, err := s.authorize(ctx, actorID, recipeID)
	if err != nil {
		return nil, err
	}
	tagIDs, amounts, err := validateInput(&in)
	if err != nil {
		return nil, err
	}

	var ref string
	if in.Image != "" {
		if ref, err = s.saveImage(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	err = s.recipes.Update(ctx, recipeID, repository.RecipeFields{
		Name:        in.Name,
		Text:        in.Text,
		Image:       ref,
		CookingTime: in.CookingTime,
	}, tagIDs, amounts)
	if err != nil {
		s.releaseImage(ctx, ref)
		return nil, err
	}
	if ref != "" && existing.Image != ref {
		s.releaseImage(ctx, existing.Image)
	}

	return s.GetRecipe(ctx, actorID, recipeID)
}

// DeleteRecipe removes the recipe with everything that references it and
// releases its image.
func (s *RecipeService) DeleteRecipe(ctx context.Context, actorID, recipeID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "service", "recipe.delete",
		attribute.Int64("recipe_id", int64(recipeID)))
	defer func() { observability.EndSpan(span, err) }()

	existing, err := s.authorize(ctx, actorID, recipeID)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		return err
	}
	s.releaseImage(ctx, existing.Image)
	middleware.Logger.InfoContext(ctx, "recipe deleted", "recipe_id", recipeID)
	return nil
}

// authorize loads the recipe and checks that actorID is its author or staff.
func (s *RecipeService) authorize(ctx context.Context, actorID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID == actorID {
		return recipe, nil
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Unknown user")
		}
		return nil, err
	}
	if !actor.IsStaff {
		return nil, models.NewPermissionDeniedError("Only the author may change this recipe")
	}
	return recipe, nil
}

// GetRecipe returns the recipe as seen by viewerID.
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID, recipeID uint) (*RecipeView, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.projections.Recipe(ctx, viewerID, recipe)
}

// ListRecipes returns a page of recipes and the total match count. The
// favorited and cart filters are ignored for anonymous viewers.
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uint, q RecipeQuery) ([]RecipeView, int64, error) {
	filter := repository.RecipeFilter{
		AuthorID: q.AuthorID,
		TagSlugs: q.TagSlugs,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if viewerID != 0 {
		if q.IsFavorited {
			filter.FavoritedBy = viewerID
		}
		if q.IsInShoppingCart {
			filter.InCartOf = viewerID
		}
	}

	recipes, total, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.projections.Recipes(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}
