// Package service holds the request-level business logic between handlers and repositories.
package service

import (
	"context"

	"foodgram/internal/models"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

// UserView is the public shape of a user as seen by a viewer.
type UserView struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// RecipeShortView is the compact recipe card used in previews and toggle responses.
type RecipeShortView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// UserWithRecipesView extends UserView with a capped recipe preview.
type UserWithRecipesView struct {
	UserView
	Recipes      []RecipeShortView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

// IngredientView is one ingredient line of a recipe.
type IngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the full recipe with viewer-relative flags.
type RecipeView struct {
	ID               uint             `json:"id"`
	Tags             []models.Tag     `json:"tags"`
	Author           UserView         `json:"author"`
	Ingredients      []IngredientView `json:"ingredients"`
	IsFavorited      bool             `json:"is_favorited"`
	IsInShoppingCart bool             `json:"is_in_shopping_cart"`
	Name             string           `json:"name"`
	Image            string           `json:"image"`
	Text             string           `json:"text"`
	CookingTime      int              `json:"cooking_time"`
}

// AllRecipes disables the preview cap in UsersWithRecipes.
const AllRecipes = -1

// ProjectionService shapes models into views. Flags are computed from the
// current relation state on every call; viewerID 0 is anonymous and sees
// every flag false.
type ProjectionService struct {
	favorites repository.RelationStore
	carts     repository.RelationStore
	follows   repository.RelationStore
	recipes   repository.RecipeRepository
	images    storage.ImageStore
}

// NewProjectionService returns a new ProjectionService.
func NewProjectionService(favorites, carts, follows repository.RelationStore, recipes repository.RecipeRepository, images storage.ImageStore) *ProjectionService {
	return &ProjectionService{
		favorites: favorites,
		carts:     carts,
		follows:   follows,
		recipes:   recipes,
		images:    images,
	}
}

func (p *ProjectionService) imageURL(ref string) string {
	if p.images == nil {
		return ref
	}
	return p.images.URL(ref)
}

// Recipes projects a page of recipes with one flag query per relation.
func (p *ProjectionService) Recipes(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]RecipeView, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i := range recipes {
		recipeIDs = append(recipeIDs, recipes[i].ID)
		authorIDs = append(authorIDs, recipes[i].AuthorID)
	}

	favorited, err := p.favorites.ObjectIDs(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := p.carts.ObjectIDs(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.follows.ObjectIDs(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RecipeView, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		ingredients := make([]IngredientView, 0, len(r.IngredientAmounts))
		for _, a := range r.IngredientAmounts {
			ingredients = append(ingredients, IngredientView{
				ID:              a.IngredientID,
				Name:            a.Ingredient.Name,
				MeasurementUnit: a.Ingredient.MeasurementUnit,
				Amount:          a.Amount,
			})
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		views = append(views, RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           userView(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            p.imageURL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		})
	}
	return views, nil
}

// Recipe projects a single recipe.
func (p *ProjectionService) Recipe(ctx context.Context, viewerID uint, recipe *models.Recipe) (*RecipeView, error) {
	views, err := p.Recipes(ctx, viewerID, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// RecipeShort projects the compact recipe card.
func (p *ProjectionService) RecipeShort(recipe *models.Recipe) RecipeShortView {
	return RecipeShortView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       p.imageURL(recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

// Users projects users with the viewer's subscription flag.
func (p *ProjectionService) Users(ctx context.Context, viewerID uint, users []models.User) ([]UserView, error) {
	ids := make([]uint, 0, len(users))
	for i := range users {
		ids = append(ids, users[i].ID)
	}
	subscribed, err := p.follows.ObjectIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i], subscribed[users[i].ID]))
	}
	return views, nil
}

// User projects one user.
func (p *ProjectionService) User(ctx context.Context, viewerID uint, user *models.User) (*UserView, error) {
	views, err := p.Users(ctx, viewerID, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UsersWithRecipes projects authors with their newest recipes. recipesLimit
// caps the preview; AllRecipes (or any negative value) shows every recipe.
// RecipesCount is always the uncapped total.
func (p *ProjectionService) UsersWithRecipes(ctx context.Context, viewerID uint, users []models.User, recipesLimit int) ([]UserWithRecipesView, error) {
	base, err := p.Users(ctx, viewerID, users)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(users))
	for i := range users {
		ids = append(ids, users[i].ID)
	}
	counts, err := p.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]UserWithRecipesView, 0, len(users))
	for i, uv := range base {
		recipes, err := p.recipes.ListByAuthor(ctx, users[i].ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		previews := make([]RecipeShortView, 0, len(recipes))
		for j := range recipes {
			previews = append(previews, p.RecipeShort(&recipes[j]))
		}
		views = append(views, UserWithRecipesView{
			UserView:     uv,
			Recipes:      previews,
			RecipesCount: counts[users[i].ID],
		})
	}
	return views, nil
}

// UserWithRecipes projects one author.
func (p *ProjectionService) UserWithRecipes(ctx context.Context, viewerID uint, user *models.User, recipesLimit int) (*UserWithRecipesView, error) {
	views, err := p.UsersWithRecipes(ctx, viewerID, []models.User{*user}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func userView(u *models.User, subscribed bool) UserView {
	return UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}
