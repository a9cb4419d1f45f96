package utils

import (
	"errors"

	"github.com/filedepot/backend/pkg/apperr"
	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// AppError translates a service error into the response envelope using its
// taxonomy code. Unauthorized actions are validation-class but answer 403.
func AppError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperr.ErrForbidden) {
		return Error(c, fiber.StatusForbidden, apperr.MessageOf(err))
	}
	return Error(c, statusForCode(apperr.CodeOf(err)), apperr.MessageOf(err))
}

func statusForCode(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation, apperr.CodeUpload:
		return fiber.StatusBadRequest
	case apperr.CodeFileNotFound, apperr.CodeFolderNotFound:
		return fiber.StatusNotFound
	case apperr.CodeConfiguration, apperr.CodeDatabase, apperr.CodeThumbnail, apperr.CodeInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
