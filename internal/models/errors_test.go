package models

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewAlreadyExistsError("dup"), fiber.StatusConflict},
		{NewNotFoundError("Recipe", 1), fiber.StatusNotFound},
		{NewSelfReferenceError("self"), fiber.StatusBadRequest},
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewPermissionDeniedError("no"), fiber.StatusForbidden},
		{NewUnauthorizedError("who"), fiber.StatusUnauthorized},
		{&AppError{Code: CodeRateLimited, Message: "slow down"}, fiber.StatusTooManyRequests},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewNotFoundError("Tag", 2)), fiber.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewAlreadyExistsError("dup"))
	assert.True(t, IsCode(err, CodeAlreadyExists))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(nil, CodeNotFound))
}

func TestRespondWithError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: secret")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, string(body), "secret")
}
