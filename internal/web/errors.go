package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/seller-dashboard/pkg/logger"
)

// ErrorHandler renders unhandled errors as JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	message := err.Error()
	if code >= fiber.StatusInternalServerError {
		logger.Error(c.UserContext()).Err(err).Str("path", c.Path()).Msg("Unhandled dashboard error")
		message = "internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":      message,
		"statusCode": code,
		"path":       c.Path(),
		"method":     c.Method(),
		"requestId":  c.GetRespHeader(fiber.HeaderXRequestID),
	})
}
