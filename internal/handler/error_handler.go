package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders failed requests as {"error", "correlationId"}.
// Client errors log at warn; anything else logs at error and, unless it is a
// *fiber.Error, is reported to the caller without its internal text.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		correlationID := requestCorrelationID(c)
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.String("correlationId", correlationID),
			zap.Error(err),
		}
		if code < fiber.StatusInternalServerError {
			logger.Warn("sms request rejected", fields...)
		} else {
			logger.Error("sms request failed", fields...)
		}

		body := fiber.Map{"error": message}
		if correlationID != "" {
			body["correlationId"] = correlationID
		}
		return c.Status(code).JSON(body)
	}
}
