package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"foodgram/internal/models"
	"foodgram/internal/observability"
	"foodgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ShoppingListHeader is the first line of every rendered shopping list.
const ShoppingListHeader = "Shopping list:"

// ShoppingService aggregates the ingredients of every recipe in a user's cart.
type ShoppingService struct {
	repo repository.ShoppingListRepository
}

// NewShoppingService returns a new ShoppingService.
func NewShoppingService(repo repository.ShoppingListRepository) *ShoppingService {
	return &ShoppingService{repo: repo}
}

// BuildShoppingList returns one line per (name, unit) pair with the summed
// amount, sorted by name and then unit.
func (s *ShoppingService) BuildShoppingList(ctx context.Context, userID uint) (items []models.ShoppingListItem, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "shopping.build",
		attribute.Int64("user_id", int64(userID)))
	defer func() { observability.EndSpan(span, err) }()

	items, err = s.repo.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	observability.ShoppingListLines.Observe(float64(len(items)))
	return items, nil
}

// RenderShoppingList formats items as the plain text report.
func RenderShoppingList(items []models.ShoppingListItem) string {
	var b strings.Builder
	b.WriteString(ShoppingListHeader)
	b.WriteByte('\n')
	for _, it := range items {
		fmt.Fprintf(&b, "%s (%s) - %d\n", it.Name, it.MeasurementUnit, it.Total)
	}
	return b.String()
}

// ShoppingListFilename is the attachment name offered for username's list.
func ShoppingListFilename(username string) string {
	return username + "_shopping_list.txt"
}
