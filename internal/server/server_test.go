package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"foodgram/internal/config"
	"foodgram/internal/models"
	"foodgram/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testSecret = "test-secret-that-is-at-least-32-chars"

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:           "test",
		Port:          "0",
		JWTSecret:     testSecret,
		PageSize:      6,
		StorageDriver: "local",
		MediaRoot:     t.TempDir(),
		MediaURL:      "/media/",
	}
}

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewTestDB(t)
	s, err := NewServerWithDeps(testConfig(t), db, nil)
	require.NoError(t, err)
	return &testApp{app: s.App(), db: db}
}

func signToken(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (a *testApp) do(t *testing.T, method, path string, userID uint, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAuthRequired(t *testing.T) {
	a := newTestApp(t)

	resp := a.do(t, http.MethodGet, "/api/users/me", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"})
	signed, err := wrongKey.SignedString([]byte("some-other-secret-of-enough-length!"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err = a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetMe(t *testing.T) {
	a := newTestApp(t)
	user := testutil.CreateUser(t, a.db)

	resp := a.do(t, http.MethodGet, "/api/users/me", user.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	assert.Equal(t, user.Email, me["email"])
	assert.NotContains(t, me, "password")
}

func TestFavoriteEndpoints(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db)
	reader := testutil.CreateUser(t, a.db)
	recipe := testutil.CreateRecipe(t, a.db, author, nil)
	path := "/api/recipes/" + strconv.Itoa(int(recipe.ID)) + "/favorite"

	resp := a.do(t, http.MethodPost, path, reader.ID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	short := decode[map[string]any](t, resp)
	assert.Equal(t, float64(recipe.ID), short["id"])
	assert.Contains(t, short, "cooking_time")

	resp = a.do(t, http.MethodPost, path, reader.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, models.CodeAlreadyExists, body.Code)

	resp = a.do(t, http.MethodGet, "/api/recipes/"+strconv.Itoa(int(recipe.ID)), reader.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, resp)["is_favorited"])

	resp = a.do(t, http.MethodDelete, path, reader.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = a.do(t, http.MethodDelete, path, reader.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/recipes/9999/favorite", reader.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = a.do(t, http.MethodPost, "/api/recipes/abc/favorite", reader.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubscribeEndpoints(t *testing.T) {
	a := newTestApp(t)
	user := testutil.CreateUser(t, a.db)
	author := testutil.CreateUser(t, a.db)
	testutil.CreateRecipe(t, a.db, author, nil)
	testutil.CreateRecipe(t, a.db, author, nil)

	resp := a.do(t, http.MethodPost, "/api/users/"+strconv.Itoa(int(user.ID))+"/subscribe", user.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeInvalidSelfReference, decode[models.ErrorResponse](t, resp).Code)

	resp = a.do(t, http.MethodPost, "/api/users/"+strconv.Itoa(int(author.ID))+"/subscribe?recipes_limit=1", user.ID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	view := decode[map[string]any](t, resp)
	assert.Equal(t, true, view["is_subscribed"])
	assert.Len(t, view["recipes"], 1)
	assert.Equal(t, float64(2), view["recipes_count"])

	resp = a.do(t, http.MethodGet, "/api/users/subscriptions", user.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[map[string]any](t, resp)
	assert.Equal(t, float64(1), page["count"])

	resp = a.do(t, http.MethodDelete, "/api/users/"+strconv.Itoa(int(author.ID))+"/subscribe", user.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDownloadShoppingCart(t *testing.T) {
	a := newTestApp(t)
	user := testutil.CreateUser(t, a.db, func(u *models.User) { u.Username = "chef" })
	flour := testutil.CreateIngredient(t, a.db, "Flour", "g")
	r1 := testutil.CreateRecipe(t, a.db, user, []testutil.Amount{{IngredientID: flour.ID, Amount: 200}})
	r2 := testutil.CreateRecipe(t, a.db, user, []testutil.Amount{{IngredientID: flour.ID, Amount: 300}})
	for _, r := range []*models.Recipe{r1, r2} {
		resp := a.do(t, http.MethodPost, "/api/recipes/"+strconv.Itoa(int(r.ID))+"/shopping_cart", user.ID, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := a.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", user.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="chef_shopping_list.txt"`, resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Shopping list:\nFlour (g) - 500\n", string(body))
}

func TestListRecipesPagination(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db)
	for i := 0; i < 3; i++ {
		testutil.CreateRecipe(t, a.db, author, nil)
	}

	resp := a.do(t, http.MethodGet, "/api/recipes/?limit=2&author="+strconv.Itoa(int(author.ID)), 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[Paginated](t, resp)
	assert.Equal(t, int64(3), page.Count)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")
	assert.Nil(t, page.Previous)
	assert.Len(t, page.Results, 2)

	resp = a.do(t, http.MethodGet, "/api/recipes/?limit=2&page=2", 0, nil)
	page = decode[Paginated](t, resp)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Len(t, page.Results, 1)

	resp = a.do(t, http.MethodGet, "/api/recipes/?author=x", 0, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRecipeEndpoint(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db)
	tag := testutil.CreateTag(t, a.db, "Breakfast", "breakfast")
	flour := testutil.CreateIngredient(t, a.db, "Flour", "g")

	payload := map[string]any{
		"name":         "Pancakes",
		"text":         "Mix and fry.",
		"cooking_time": 15,
		"tags":         []uint{tag.ID},
		"ingredients":  []map[string]any{{"id": flour.ID, "amount": 250}},
		"image":        pngDataURI(t),
	}

	resp := a.do(t, http.MethodPost, "/api/recipes/", 0, payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/recipes/", author.ID, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	view := decode[map[string]any](t, resp)
	assert.Equal(t, "Pancakes", view["name"])
	assert.Regexp(t, `^/media/recipes/images/.+\.png$`, view["image"])

	payload["cooking_time"] = 0
	resp = a.do(t, http.MethodPost, "/api/recipes/", author.ID, payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, resp).Code)
}

func TestRecipeMutationForbidden(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db)
	stranger := testutil.CreateUser(t, a.db)
	recipe := testutil.CreateRecipe(t, a.db, author, nil)

	resp := a.do(t, http.MethodDelete, "/api/recipes/"+strconv.Itoa(int(recipe.ID)), stranger.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodDelete, "/api/recipes/"+strconv.Itoa(int(recipe.ID)), author.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	a := newTestApp(t)
	tag := testutil.CreateTag(t, a.db, "Lunch", "lunch")
	testutil.CreateIngredient(t, a.db, "Salt", "g")
	testutil.CreateIngredient(t, a.db, "Sugar", "g")
	testutil.CreateIngredient(t, a.db, "Milk", "ml")

	resp := a.do(t, http.MethodGet, "/api/tags/", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Tag](t, resp), 1)

	resp = a.do(t, http.MethodGet, "/api/tags/"+strconv.Itoa(int(tag.ID)), 0, nil)
	assert.Equal(t, "lunch", decode[models.Tag](t, resp).Slug)

	resp = a.do(t, http.MethodGet, "/api/tags/42", 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/api/ingredients/?name=s", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Ingredient](t, resp), 2)
}

func TestHealthChecks(t *testing.T) {
	a := newTestApp(t)

	resp := a.do(t, http.MethodGet, "/health/live", 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/health/ready", 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	checks := decode[map[string]any](t, resp)["checks"].(map[string]any)
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestReadinessCheckDatabaseDown(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	s, err := NewServerWithDeps(testConfig(t), db, nil)
	require.NoError(t, err)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnknownRouteKeepsStatus(t *testing.T) {
	a := newTestApp(t)
	resp := a.do(t, http.MethodGet, "/api/nope", 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
