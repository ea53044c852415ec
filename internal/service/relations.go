package service

import (
	"context"
	"fmt"

	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/observability"
	"foodgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// relation binds a RelationStore to the names used in errors and metrics.
type relation struct {
	name  string
	label string
	store repository.RelationStore
}

func (r relation) add(ctx context.Context, subjectID, objectID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "service", "relation.add",
		attribute.String("relation", r.name),
		attribute.Int64("subject_id", int64(subjectID)),
		attribute.Int64("object_id", int64(objectID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	inserted, err := r.store.Add(ctx, subjectID, objectID)
	if err != nil {
		observability.RecordToggle(r.name, "add", outcome(err))
		return err
	}
	if !inserted {
		observability.RecordToggle(r.name, "add", "conflict")
		return models.NewAlreadyExistsError(fmt.Sprintf("%s already exists", r.label))
	}
	observability.RecordToggle(r.name, "add", "ok")
	middleware.Logger.InfoContext(ctx, "relation added",
		"relation", r.name, "subject_id", subjectID, "object_id", objectID)
	return nil
}

func (r relation) remove(ctx context.Context, subjectID, objectID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "service", "relation.remove",
		attribute.String("relation", r.name),
		attribute.Int64("subject_id", int64(subjectID)),
		attribute.Int64("object_id", int64(objectID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	removed, err := r.store.Remove(ctx, subjectID, objectID)
	if err != nil {
		observability.RecordToggle(r.name, "remove", outcome(err))
		return err
	}
	if !removed {
		observability.RecordToggle(r.name, "remove", "missing")
		return models.NewRelationNotFoundError(fmt.Sprintf("%s does not exist", r.label))
	}
	observability.RecordToggle(r.name, "remove", "ok")
	middleware.Logger.InfoContext(ctx, "relation removed",
		"relation", r.name, "subject_id", subjectID, "object_id", objectID)
	return nil
}

func outcome(err error) string {
	switch {
	case models.IsCode(err, models.CodeNotFound):
		return "not_found"
	case models.IsCode(err, models.CodeInvalidSelfReference):
		return "self_reference"
	default:
		return "error"
	}
}

// RelationService applies and revokes favorites, cart entries and
// subscriptions. Adds fail with ALREADY_EXISTS when the pair holds, removes
// with NOT_FOUND when it does not.
type RelationService struct {
	favorites   relation
	carts       relation
	follows     relation
	recipes     repository.RecipeRepository
	users       repository.UserRepository
	projections *ProjectionService
}

// NewRelationService returns a new RelationService.
func NewRelationService(
	favorites, carts, follows repository.RelationStore,
	recipes repository.RecipeRepository,
	users repository.UserRepository,
	projections *ProjectionService,
) *RelationService {
	return &RelationService{
		favorites:   relation{name: "favorite", label: "Recipe in favorites", store: favorites},
		carts:       relation{name: "cart", label: "Recipe in shopping cart", store: carts},
		follows:     relation{name: "follow", label: "Subscription", store: follows},
		recipes:     recipes,
		users:       users,
		projections: projections,
	}
}

// AddFavorite marks recipeID as a favorite of userID.
func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uint) (*RecipeShortView, error) {
	return s.addRecipe(ctx, s.favorites, userID, recipeID)
}

// RemoveFavorite unmarks recipeID as a favorite of userID.
func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.favorites.remove(ctx, userID, recipeID)
}

// AddToCart puts recipeID into the shopping cart of userID.
func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uint) (*RecipeShortView, error) {
	return s.addRecipe(ctx, s.carts, userID, recipeID)
}

// RemoveFromCart takes recipeID out of the shopping cart of userID.
func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.carts.remove(ctx, userID, recipeID)
}

func (s *RelationService) addRecipe(ctx context.Context, rel relation, userID, recipeID uint) (*RecipeShortView, error) {
	if err := rel.add(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	view := s.projections.RecipeShort(recipe)
	return &view, nil
}

// Follow subscribes userID to authorID and returns the author with a recipe
// preview capped at recipesLimit (AllRecipes for no cap).
func (s *RelationService) Follow(ctx context.Context, userID, authorID uint, recipesLimit int) (*UserWithRecipesView, error) {
	if userID == authorID {
		observability.RecordToggle(s.follows.name, "add", "self_reference")
		return nil, models.NewSelfReferenceError("Cannot subscribe to yourself")
	}
	if err := s.follows.add(ctx, userID, authorID); err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.projections.UserWithRecipes(ctx, userID, author, recipesLimit)
}

// Unfollow removes the subscription of userID to authorID.
func (s *RelationService) Unfollow(ctx context.Context, userID, authorID uint) error {
	return s.follows.remove(ctx, userID, authorID)
}
