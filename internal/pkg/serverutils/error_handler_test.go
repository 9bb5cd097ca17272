package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

type askRequest struct {
	Question string `json:"question" validate:"required"`
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(ErrorMapping{Err: errMissing, Code: fiber.StatusNotFound}))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(SuccessResponse("fine", map[string]string{"k": "v"}))
	})
	app.Get("/mapped", func(c *fiber.Ctx) error {
		return fmt.Errorf("load: %w", errMissing)
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return ValidateRequest(askRequest{})
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "too big")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	tests := []struct {
		path     string
		wantCode int
		success  bool
	}{
		{"/ok", 200, true},
		{"/mapped", 404, false},
		{"/invalid", 400, false},
		{"/fiber", 413, false},
		{"/boom", 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var env Response[json.RawMessage]
			require.NoError(t, json.Unmarshal(body, &env))
			assert.Equal(t, tt.success, env.Success)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(askRequest{Question: "q"}))

	var verr *ValidationError
	require.ErrorAs(t, ValidateRequest(askRequest{}), &verr)
	assert.Equal(t, map[string]string{"Question": "required"}, verr.Fields)
}
