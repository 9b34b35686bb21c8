package handlers

import (
	"errors"

	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// writeError maps service errors to status codes. Unknown errors are logged
// and reported as 500.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var schemaErr *services.InvalidSchemaError
	var dataErr *services.DataValidationError

	switch {
	case errors.As(err, &schemaErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid json_schema", Details: []string{schemaErr.Error()}})
	case errors.As(err, &dataErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Error: "data does not match template schema", Details: dataErr.Errors})
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrAppNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrTemplateInUse),
		errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrSubmissionsClosed):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidSignature),
		errors.Is(err, services.ErrInvalidNonce):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrTemplateNotReady),
		errors.Is(err, services.ErrUnknownKind):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	reqID := middleware.GetRequestID(c)
	log.Error("request failed", zap.String("request_id", reqID), zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error", RequestID: reqID})
}
