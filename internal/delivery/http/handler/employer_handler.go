package handler

import (
	"strings"

	"fdeworld/internal/delivery/http/middleware"
	"fdeworld/internal/pkg/response"
	"fdeworld/internal/usecase"
	candidateuc "fdeworld/internal/usecase/candidate"
	employeruc "fdeworld/internal/usecase/employer"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type EmployerHandler struct {
	svc        *employeruc.Service
	candidates *candidateuc.Service
	cookies    CookieOptions
	log        *zap.SugaredLogger
}

type employerSignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
}

type submitJobRequest struct {
	JobURL string `json:"job_url"`
}

func NewEmployerHandler(svc *employeruc.Service, candidates *candidateuc.Service, cookies CookieOptions, logger *zap.SugaredLogger) *EmployerHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EmployerHandler{svc: svc, candidates: candidates, cookies: cookies, log: logger}
}

// RegisterRoutes mounts the public routes on r and the session routes
// behind session; limit guards signup.
func (h *EmployerHandler) RegisterRoutes(r fiber.Router, session, limit fiber.Handler) {
	if r == nil || session == nil {
		return
	}
	if limit == nil {
		limit = func(c fiber.Ctx) error { return c.Next() }
	}

	r.Post("/signup", limit, h.Signup)
	r.Get("/auth", h.Authenticate)

	r.Get("/me", session, h.Me)
	r.Post("/signout", session, h.Signout)
	r.Get("/jobs", session, h.ListJobs)
	r.Post("/jobs", session, h.SubmitJob)
}

func (h *EmployerHandler) Signup(c fiber.Ctx) error {
	var req employerSignupRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("", err)
	}
	err := h.svc.Signup(c.Context(), employeruc.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return badRequest("Name, email and company name are required", err)
		}
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"ok": true})
}

// Authenticate trades the magic link for an employer session. The employer
// is also signed in as a candidate so saved jobs work for them.
func (h *EmployerHandler) Authenticate(c fiber.Ctx) error {
	tok := strings.TrimSpace(c.Query("token"))
	if tok == "" {
		return badRequest("Missing token", nil)
	}

	sess, err := h.svc.Authenticate(c.Context(), tok)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid or expired link", nil, err)
		}
		return mapUsecaseError(err, "")
	}
	setSessionCookie(c, middleware.EmployerCookie, sess.Token, h.cookies)

	if h.candidates != nil {
		if cand, err := h.candidates.EnsureForEmail(c.Context(), sess.Employer.Email, sess.Employer.Name); err != nil {
			h.log.Warnw("[Employer] candidate identity failed", "employer_id", sess.Employer.ID, "error", err)
		} else if ctok, err := h.candidates.IssueSession(cand); err == nil {
			setSessionCookie(c, middleware.CandidateCookie, ctok, h.cookies)
		}
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"ok": true,
		"employer": fiber.Map{
			"id":           sess.Employer.ID,
			"name":         sess.Employer.Name,
			"company_name": sess.Employer.CompanyName,
		},
	})
}

func (h *EmployerHandler) Me(c fiber.Ctx) error {
	e, err := h.svc.Me(c.Context(), middleware.EmployerID(c))
	if err != nil {
		return mapUsecaseError(err, "Employer not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"id":           e.ID,
		"name":         e.Name,
		"email":        e.Email,
		"company_name": e.CompanyName,
	})
}

func (h *EmployerHandler) Signout(c fiber.Ctx) error {
	if err := h.svc.Signout(c.Context(), middleware.SessionID(c)); err != nil {
		return mapUsecaseError(err, "")
	}
	clearSessionCookie(c, middleware.EmployerCookie, h.cookies)
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"ok": true})
}

func (h *EmployerHandler) ListJobs(c fiber.Ctx) error {
	subs, err := h.svc.Submissions(c.Context(), middleware.EmployerID(c))
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"submissions": subs})
}

func (h *EmployerHandler) SubmitJob(c fiber.Ctx) error {
	var req submitJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("", err)
	}
	res, err := h.svc.SubmitJob(c.Context(), middleware.EmployerID(c), req.JobURL)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return badRequest("A valid job URL is required", err)
		}
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"ok":            true,
		"submission_id": res.SubmissionID,
		"was_duplicate": res.WasDuplicate,
		"scraped_title": res.ScrapedTitle,
	})
}
