package server

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxPageSize = 100

// Page holds parsed page/limit query parameters.
type Page struct {
	Number int
	Limit  int
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Paginated is the list envelope returned by paginated endpoints.
type Paginated struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// parsePage extracts page and limit query parameters with the given default limit.
func parsePage(c *fiber.Ctx, defaultLimit int) Page {
	if defaultLimit <= 0 {
		defaultLimit = 6
	}
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return Page{Number: page, Limit: limit}
}

// paginate wraps results with count and neighbour page links.
func paginate(c *fiber.Ctx, p Page, total int64, results any) Paginated {
	out := Paginated{Count: total, Results: results}
	if int64(p.Number*p.Limit) < total {
		next := pageURL(c, p.Number+1)
		out.Next = &next
	}
	if p.Number > 1 {
		prev := pageURL(c, p.Number-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(c *fiber.Ctx, page int) string {
	q, _ := url.ParseQuery(string(c.Request().URI().QueryString()))
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := c.BaseURL() + c.Path()
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+strings.ToUpper(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// queryUint parses an optional positive integer query parameter.
func queryUint(c *fiber.Ctx, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, models.NewValidationError("Invalid " + key)
	}
	return uint(n), nil
}

// queryFlag reads a boolean filter given as 1/0 or true/false.
func queryFlag(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// recipesLimit reads ?recipes_limit; absent or invalid means no cap.
func recipesLimit(c *fiber.Ctx) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 0 {
		return service.AllRecipes
	}
	return n
}

// fail writes err with the status its error code maps to. Internal
// errors are logged with the request context.
func fail(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error", "path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}
