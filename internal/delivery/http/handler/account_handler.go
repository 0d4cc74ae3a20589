package handler

import (
	"strings"
	"time"

	"fdeworld/internal/delivery/http/dto"
	"fdeworld/internal/delivery/http/middleware"
	"fdeworld/internal/domain/candidate"
	"fdeworld/internal/pkg/response"
	candidateuc "fdeworld/internal/usecase/candidate"

	"github.com/gofiber/fiber/v3"
)

// AccountHandler serves the signed-in candidate's profile and saved jobs.
// Routes expect the candidate session middleware in front.
type AccountHandler struct {
	svc     *candidateuc.Service
	cookies CookieOptions
	now     func() time.Time
}

type updateAccountRequest struct {
	Name            *string   `json:"name"`
	Surname         *string   `json:"surname"`
	RoleTypes       *[]string `json:"role_types"`
	RemotePref      *string   `json:"remote_pref"`
	AlertFreq       *string   `json:"alert_freq"`
	CurrentRole     *string   `json:"current_role"`
	CurrentCompany  *string   `json:"current_company"`
	YearsExperience *string   `json:"years_experience"`
	Skills          *[]string `json:"skills"`
	OpenToWork      *bool     `json:"open_to_work"`
	Location        *string   `json:"location"`
	WorkAuth        *[]string `json:"work_auth"`
	NoticePeriod    *string   `json:"notice_period"`
	SalaryMin       *int64    `json:"salary_min"`
	SalaryCurrency  *string   `json:"salary_currency"`
	LinkedinURL     *string   `json:"linkedin_url"`
}

func (r updateAccountRequest) patch() candidate.Patch {
	return candidate.Patch{
		Name:            r.Name,
		Surname:         r.Surname,
		RoleTypes:       r.RoleTypes,
		RemotePref:      r.RemotePref,
		AlertFreq:       r.AlertFreq,
		CurrentRole:     r.CurrentRole,
		CurrentCompany:  r.CurrentCompany,
		YearsExperience: r.YearsExperience,
		Skills:          r.Skills,
		OpenToWork:      r.OpenToWork,
		Location:        r.Location,
		WorkAuth:        r.WorkAuth,
		NoticePeriod:    r.NoticePeriod,
		SalaryMin:       r.SalaryMin,
		SalaryCurrency:  r.SalaryCurrency,
		LinkedinURL:     r.LinkedinURL,
	}
}

type savedJobRequest struct {
	JobURL string `json:"jobUrl"`
}

func NewAccountHandler(svc *candidateuc.Service, cookies CookieOptions) *AccountHandler {
	return &AccountHandler{svc: svc, cookies: cookies, now: time.Now}
}

func (h *AccountHandler) RegisterAccountRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.GetAccount)
	r.Patch("/", h.UpdateAccount)
	r.Delete("/", h.DeleteAccount)
}

func (h *AccountHandler) RegisterSavedRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.SavedURLs)
	r.Post("/", h.Save)
	r.Delete("/", h.Unsave)
	r.Get("/jobs", h.SavedJobs)
}

func (h *AccountHandler) GetAccount(c fiber.Ctx) error {
	acct, err := h.svc.Account(c.Context(), middleware.CandidateID(c))
	if err != nil {
		return mapUsecaseError(err, "Account not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, acct)
}

func (h *AccountHandler) UpdateAccount(c fiber.Ctx) error {
	var req updateAccountRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("", err)
	}
	if err := h.svc.UpdateAccount(c.Context(), middleware.CandidateID(c), req.patch()); err != nil {
		return mapUsecaseError(err, "Account not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"success": true})
}

func (h *AccountHandler) DeleteAccount(c fiber.Ctx) error {
	if err := h.svc.DeleteAccount(c.Context(), middleware.CandidateID(c)); err != nil {
		return mapUsecaseError(err, "Account not found")
	}
	clearSessionCookie(c, middleware.CandidateCookie, h.cookies)
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"success": true})
}

func (h *AccountHandler) SavedURLs(c fiber.Ctx) error {
	urls, err := h.svc.SavedURLs(c.Context(), middleware.CandidateID(c))
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"savedUrls": urls})
}

func (h *AccountHandler) Save(c fiber.Ctx) error {
	jobURL, err := savedJobURL(c)
	if err != nil {
		return err
	}
	if err := h.svc.Save(c.Context(), middleware.CandidateID(c), jobURL); err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"success": true})
}

func (h *AccountHandler) Unsave(c fiber.Ctx) error {
	jobURL, err := savedJobURL(c)
	if err != nil {
		return err
	}
	if err := h.svc.Unsave(c.Context(), middleware.CandidateID(c), jobURL); err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"success": true})
}

func (h *AccountHandler) SavedJobs(c fiber.Ctx) error {
	jobs, err := h.svc.SavedJobs(c.Context(), middleware.CandidateID(c))
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"jobs": dto.NewJobResponses(jobs, h.now())})
}

// savedJobURL reads jobUrl from the JSON body, or from the query string for
// clients that cannot send a DELETE body.
func savedJobURL(c fiber.Ctx) (string, error) {
	if u := strings.TrimSpace(c.Query("jobUrl")); u != "" {
		return u, nil
	}
	var req savedJobRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return "", badRequest("", err)
		}
	}
	if strings.TrimSpace(req.JobURL) == "" {
		return "", badRequest("jobUrl is required", nil)
	}
	return req.JobURL, nil
}
