package handler

import (
	"context"

	"fdeworld/internal/delivery/http/middleware"
	"fdeworld/internal/pkg/response"
	"fdeworld/internal/usecase"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
)

// mapUsecaseError turns a usecase sentinel into the HTTP error rendered by
// the error middleware. notFound overrides the 404 message when set.
func mapUsecaseError(err error, notFound string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrNotFound):
		if notFound == "" {
			notFound = "Not found"
		}
		return middleware.NewAppError(fiber.StatusNotFound, notFound, nil, err)
	case errors.Is(err, usecase.ErrConflict):
		return middleware.NewAppError(fiber.StatusConflict, "Conflict", nil, err)
	case errors.Is(err, context.DeadlineExceeded):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func badRequest(msg string, cause error) error {
	if msg == "" {
		msg = "Bad request"
	}
	return middleware.NewAppError(fiber.StatusBadRequest, msg, nil, cause)
}
