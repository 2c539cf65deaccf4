// FILE: internal/pkg/serverutils/error_handler.go
package serverutils

import (
	"github.com/gofiber/fiber/v2"

	"prompt-polish-be/internal/apperror"
)

// ErrorHandlerMiddleware maps typed app errors to the JSON envelope; anything
// untyped becomes a generic 500 without leaking internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if appErr, ok := apperror.As(err); ok {
			body := fiber.Map{
				"success": false,
				"code":    appErr.Code,
				"message": appErr.Message,
			}
			for k, v := range appErr.Meta {
				body[k] = v
			}
			return ctx.Status(appErr.Status).JSON(body)
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"code":    fiberErr.Code,
				"message": fiberErr.Message,
			})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"code":    500,
			"message": "internal server error",
		})
	}
}
