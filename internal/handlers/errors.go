package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/services"
)

// ErrorHandler renders every error as {"success": false, "reason", "message"}.
// Dependency failures are logged and reported without internal detail.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if svcErr, ok := services.AsError(err); ok {
			if svcErr.Kind == services.KindDependency {
				log.Error("request failed",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.String("reason", svcErr.Reason),
					zap.Error(err),
				)
			}
			return c.Status(svcErr.Status).JSON(fiber.Map{
				"success": false,
				"reason":  svcErr.Reason,
				"message": svcErr.Message,
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"reason":  reasonForStatus(fe.Code),
				"message": fe.Message,
			})
		}

		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"reason":  "internal_error",
			"message": "internal server error",
		})
	}
}

func reasonForStatus(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "invalid_input"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}

func badRequest(msg string) error {
	return services.ErrInvalidInput.WithMessage(msg)
}
