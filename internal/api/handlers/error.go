package handlers

import (
	"context"
	"errors"

	"finhealth/internal/dto"
	"finhealth/internal/service"
	"finhealth/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// writeError writes the standard error body without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{
		RequestID: middleware.GetRequestID(c),
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ErrorHandler standardises errors that escape the handlers (unknown
// routes, body limit, panics recovered by the recover middleware).
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "file is too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// writeAnalysisError maps pipeline failures. Everything that is not a
// caller mistake collapses into the single user-facing analysis message.
func writeAnalysisError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrBusy):
		return writeError(c, fiber.StatusTooManyRequests, "BUSY", "an analysis is already running")
	case errors.Is(err, service.ErrInvalidIndustry):
		return writeError(c, fiber.StatusBadRequest, "INVALID_INDUSTRY", "unknown industry")
	case errors.Is(err, service.ErrInvalidLanguage):
		return writeError(c, fiber.StatusBadRequest, "INVALID_LANGUAGE", "unknown language")
	}

	if service.IsAnalysisFailure(err) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("Analysis failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	} else {
		logger.Error("Analysis failed unexpectedly",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	return writeError(c, fiber.StatusUnprocessableEntity, "ANALYSIS_FAILED", service.AnalysisFailedMessage)
}
