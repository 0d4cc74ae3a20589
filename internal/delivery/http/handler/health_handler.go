package handler

import (
	"fdeworld/internal/pkg/response"
	"fdeworld/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	status usecase.StatusUsecase
}

func NewHealthHandler(status usecase.StatusUsecase) *HealthHandler {
	return &HealthHandler{status: status}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
	r.Get("/api/status", h.Status)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"status": "ok"})
}

func (h *HealthHandler) Status(c fiber.Ctx) error {
	if h.status == nil {
		return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"status": "ok"})
	}
	st, err := h.status.GetStatus(c.Context())
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, st)
}
