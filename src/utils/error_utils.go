// error_utils.go
package utils

import (
	"errors"

	"Backend-QA-Portal/src/logger"
	"Backend-QA-Portal/src/models"

	"github.com/gofiber/fiber/v2"
)

func HandleError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Status:  status,
		Message: message,
	})
}

// HandleAppError แปลง error จาก service เป็น response ตามประเภท
func HandleAppError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.Kind.HTTPStatus()
		if appErr.Kind == KindDependency {
			l := logger.Component("http")
			l.Error().Err(err).Str("path", c.Path()).Msg("dependency failure")
		}
		return c.Status(status).JSON(models.ErrorResponse{
			Status:  status,
			Code:    appErr.Kind.String(),
			Message: appErr.Message,
		})
	}

	l := logger.Component("http")
	l.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Status:  fiber.StatusInternalServerError,
		Code:    "INTERNAL",
		Message: "internal server error",
	})
}
