package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/users/
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePage(c, s.config.PageSize)
	views, total, err := s.userService.ListUsers(c.UserContext(), s.optionalUserID(c), page.Limit, page.Offset())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(paginate(c, page, total, views))
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.userService.GetUser(c.UserContext(), s.optionalUserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	view, err := s.userService.Me(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// ListSubscriptions handles GET /api/users/subscriptions
func (s *Server) ListSubscriptions(c *fiber.Ctx) error {
	page := parsePage(c, s.config.PageSize)
	views, total, err := s.userService.Subscriptions(c.UserContext(), currentUserID(c),
		page.Limit, page.Offset(), recipesLimit(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(paginate(c, page, total, views))
}

// Subscribe handles POST /api/users/:id/subscribe
func (s *Server) Subscribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.relationService.Follow(c.UserContext(), currentUserID(c), id, recipesLimit(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// Unsubscribe handles DELETE /api/users/:id/subscribe
func (s *Server) Unsubscribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.relationService.Unfollow(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
