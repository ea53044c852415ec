package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"foodgram/internal/repository"
	"foodgram/internal/storage"
	"foodgram/internal/testutil"

	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	images      *storage.LocalStore
	projections *ProjectionService
	relations   *RelationService
	recipes     *RecipeService
	shopping    *ShoppingService
	users       *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	images := storage.NewLocalStore(t.TempDir(), "/media/")

	favorites := repository.NewFavoriteStore(db)
	carts := repository.NewCartStore(db)
	follows := repository.NewFollowStore(db)
	recipeRepo := repository.NewRecipeRepository(db)
	userRepo := repository.NewUserRepository(db)

	projections := NewProjectionService(favorites, carts, follows, recipeRepo, images)
	return &testEnv{
		db:          db,
		images:      images,
		projections: projections,
		relations:   NewRelationService(favorites, carts, follows, recipeRepo, userRepo, projections),
		recipes:     NewRecipeService(recipeRepo, userRepo, images, projections),
		shopping:    NewShoppingService(repository.NewShoppingListRepository(db)),
		users:       NewUserService(userRepo, projections),
	}
}

// pngDataURI returns a 2x2 PNG encoded as a data URI.
func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
