package server

import (
	"fmt"
	"strings"

	"foodgram/internal/models"
	"foodgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListRecipes handles GET /api/recipes/
func (s *Server) ListRecipes(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewerID := s.optionalUserID(c)
	page := parsePage(c, s.config.PageSize)

	authorID, err := queryUint(c, "author")
	if err != nil {
		return fail(c, err)
	}

	var slugs []string
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		if string(key) == "tags" {
			for _, slug := range strings.Split(string(value), ",") {
				if slug = strings.TrimSpace(slug); slug != "" {
					slugs = append(slugs, slug)
				}
			}
		}
	})

	views, total, err := s.recipeService.ListRecipes(ctx, viewerID, service.RecipeQuery{
		AuthorID:         authorID,
		TagSlugs:         slugs,
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
		Limit:            page.Limit,
		Offset:           page.Offset(),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(paginate(c, page, total, views))
}

// GetRecipe handles GET /api/recipes/:id
func (s *Server) GetRecipe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.recipeService.GetRecipe(c.UserContext(), s.optionalUserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// CreateRecipe handles POST /api/recipes/
func (s *Server) CreateRecipe(c *fiber.Ctx) error {
	var in service.RecipeInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	view, err := s.recipeService.CreateRecipe(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// UpdateRecipe handles PATCH /api/recipes/:id
func (s *Server) UpdateRecipe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.RecipeInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	view, err := s.recipeService.UpdateRecipe(c.UserContext(), currentUserID(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// DeleteRecipe handles DELETE /api/recipes/:id
func (s *Server) DeleteRecipe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.recipeService.DeleteRecipe(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddFavorite handles POST /api/recipes/:id/favorite
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.relationService.AddFavorite(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// RemoveFavorite handles DELETE /api/recipes/:id/favorite
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.relationService.RemoveFavorite(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddToCart handles POST /api/recipes/:id/shopping_cart
func (s *Server) AddToCart(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.relationService.AddToCart(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// RemoveFromCart handles DELETE /api/recipes/:id/shopping_cart
func (s *Server) RemoveFromCart(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.relationService.RemoveFromCart(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadShoppingCart handles GET /api/recipes/download_shopping_cart
func (s *Server) DownloadShoppingCart(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	me, err := s.userService.Me(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	items, err := s.shoppingService.BuildShoppingList(ctx, userID)
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", service.ShoppingListFilename(me.Username)))
	return c.SendString(service.RenderShoppingList(items))
}
