package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"driveshare/internal/apperrors"
	applog "driveshare/internal/log"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// fail renders any error as the structured JSON error body. Unexpected errors
// are logged with their cause and surfaced as a generic storage failure so
// internals never leak.
func fail(c *fiber.Ctx, err error) error {
	ae := apperrors.As(err)
	if ae == nil {
		ae = apperrors.Storage(err)
	}
	if ae.Err != nil {
		applog.Error(c, "request.fail", ae.Err, map[string]any{"code": ae.Code})
	}
	return c.Status(ae.HTTPStatus).JSON(fiber.Map{"error": ae})
}

// parseBody decodes and validates a JSON request body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.InvalidInput("malformed JSON body")
	}
	if err := structValidator.Struct(dst); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return apperrors.InvalidInput("invalid field: " + errs[0].Field())
		}
		return apperrors.InvalidInput("invalid request body")
	}
	return nil
}
