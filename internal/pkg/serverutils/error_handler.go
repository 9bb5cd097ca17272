package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorMapping assigns an HTTP status to a sentinel error.
type ErrorMapping struct {
	Err  error
	Code int
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// envelope. Unmapped errors become 500.
func ErrorHandlerMiddleware(mappings ...ErrorMapping) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		var (
			verr *ValidationError
			ferr *fiber.Error
		)
		switch {
		case errors.As(err, &verr):
			code = fiber.StatusBadRequest
		case errors.As(err, &ferr):
			code = ferr.Code
		default:
			for _, m := range mappings {
				if errors.Is(err, m.Err) {
					code = m.Code
					break
				}
			}
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
