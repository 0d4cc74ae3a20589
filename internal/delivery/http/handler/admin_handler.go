package handler

import (
	"strings"
	"time"

	"fdeworld/internal/delivery/http/dto"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/pkg/response"
	"fdeworld/internal/repository"
	"fdeworld/internal/usecase"
	adminuc "fdeworld/internal/usecase/admin"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
)

// AdminHandler serves moderation and catalog maintenance.
type AdminHandler struct {
	svc *adminuc.Service
	now func() time.Time
}

type updateJobRequest struct {
	Title          *string `json:"title"`
	Company        *string `json:"company"`
	Location       *string `json:"location"`
	SalaryMin      *int64  `json:"salary_min"`
	SalaryMax      *int64  `json:"salary_max"`
	SalaryCurrency *string `json:"salary_currency"`
	JobURL         *string `json:"job_url"`
	Status         *string `json:"status"`
	PostedDate     *string `json:"posted_date"`
	Featured       *bool   `json:"featured"`
}

func NewAdminHandler(svc *adminuc.Service) *AdminHandler {
	return &AdminHandler{svc: svc, now: time.Now}
}

// RegisterRoutes mounts the moderation routes behind guard.
func (h *AdminHandler) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	if r == nil || guard == nil {
		return
	}

	r.Get("/jobs", guard, h.ListJobs)
	r.Patch("/jobs/:id", guard, h.UpdateJob)
	r.Delete("/jobs/:id", guard, h.DeleteJob)
	r.Get("/candidates", guard, h.Candidates)
	r.Get("/employer-submissions", guard, h.Submissions)
	r.Post("/employer-submissions/:id/approve", guard, h.Approve)
	r.Post("/employer-submissions/:id/reject", guard, h.Reject)
}

// RegisterSyncRoutes mounts the database import behind its own guard.
func (h *AdminHandler) RegisterSyncRoutes(r fiber.Router, guard fiber.Handler) {
	if r == nil || guard == nil {
		return
	}

	r.Post("/sync-db", guard, h.SyncDB)
}

func (h *AdminHandler) ListJobs(c fiber.Ctx) error {
	page, err := parseQueryIntStrict(c, "page", 1)
	if err != nil {
		return badRequest("Invalid page", err)
	}
	limit, err := parseQueryIntStrict(c, "limit", repository.AdminDefaultLimit)
	if err != nil {
		return badRequest("Invalid limit", err)
	}

	out, err := h.svc.ListJobs(c.Context(), repository.AdminJobQuery{
		Search: strings.TrimSpace(c.Query("search")),
		Status: strings.TrimSpace(c.Query("status")),
		Source: strings.TrimSpace(c.Query("source")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"jobs":  dto.NewJobResponses(out.Jobs, h.now()),
		"total": out.Total,
		"page":  out.Page,
		"limit": out.Limit,
	})
}

func (h *AdminHandler) UpdateJob(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}
	var req updateJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("", err)
	}

	j, err := h.svc.UpdateJob(c.Context(), id, job.Update{
		Title:          req.Title,
		Company:        req.Company,
		Location:       req.Location,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		SalaryCurrency: req.SalaryCurrency,
		URL:            req.JobURL,
		Status:         req.Status,
		PostedDate:     req.PostedDate,
		Featured:       req.Featured,
	})
	if err != nil {
		return mapUsecaseError(err, "Job not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"ok": true, "job": dto.NewJobResponse(j, h.now())})
}

// DeleteJob closes the job; ?hard=true removes the row.
func (h *AdminHandler) DeleteJob(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteJob(c.Context(), id, parseQueryBool(c, "hard")); err != nil {
		return mapUsecaseError(err, "Job not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"ok": true})
}

func (h *AdminHandler) Candidates(c fiber.Ctx) error {
	page, err := parseQueryIntStrict(c, "page", 1)
	if err != nil {
		return badRequest("Invalid page", err)
	}
	limit, err := parseQueryIntStrict(c, "limit", repository.AdminDefaultLimit)
	if err != nil {
		return badRequest("Invalid limit", err)
	}
	out, err := h.svc.Candidates(c.Context(), page, limit)
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *AdminHandler) Submissions(c fiber.Ctx) error {
	out, err := h.svc.Submissions(c.Context(), strings.TrimSpace(c.Query("status")))
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"submissions": out})
}

func (h *AdminHandler) Approve(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Approve(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err, "Submission not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"ok": true, "submission": sub})
}

func (h *AdminHandler) Reject(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Reject(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err, "Submission not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"ok": true, "submission": sub})
}

// SyncDB replaces the scraper tables with the SQLite file in the body.
func (h *AdminHandler) SyncDB(c fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return badRequest("Empty body", nil)
	}
	payload := make([]byte, len(body))
	copy(payload, body)

	report, err := h.svc.ImportDatabase(c.Context(), payload)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return badRequest("Body is not a usable SQLite database", err)
		}
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"ok": true, "import": report})
}
