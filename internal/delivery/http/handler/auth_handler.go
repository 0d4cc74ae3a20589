package handler

import (
	"strings"

	"fdeworld/internal/delivery/http/middleware"
	"fdeworld/internal/pkg/response"
	"fdeworld/internal/usecase"
	candidateuc "fdeworld/internal/usecase/candidate"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
)

// AuthHandler serves candidate magic-link sign-in.
type AuthHandler struct {
	svc     *candidateuc.Service
	cookies CookieOptions
}

type signupRequest struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Surname     string   `json:"surname"`
	RoleTypes   []string `json:"roleTypes"`
	LinkedinURL string   `json:"linkedin_url"`
	Location    string   `json:"location"`
	CVFilename  string   `json:"cv_filename"`
	CVPath      string   `json:"cv_path"`
}

type signinRequest struct {
	Email string `json:"email"`
}

func NewAuthHandler(svc *candidateuc.Service, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

// RegisterRoutes mounts the handlers; limit guards the mail-sending routes.
func (h *AuthHandler) RegisterRoutes(r fiber.Router, limit fiber.Handler) {
	if r == nil {
		return
	}
	if limit == nil {
		limit = func(c fiber.Ctx) error { return c.Next() }
	}

	r.Post("/signup", limit, h.Signup)
	r.Post("/signin", limit, h.Signin)
	r.Post("/signout", h.Signout)
	r.Get("/verify", h.Verify)
}

func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var req signupRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("", err)
	}

	err := h.svc.Signup(c.Context(), candidateuc.SignupInput{
		Email:       req.Email,
		Name:        req.Name,
		Surname:     req.Surname,
		RoleTypes:   req.RoleTypes,
		LinkedinURL: req.LinkedinURL,
		Location:    req.Location,
		CVFilename:  req.CVFilename,
		CVPath:      req.CVPath,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return badRequest("Email, name and a LinkedIn URL or CV are required", err)
		}
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"success": true,
		"message": "Check your email for the sign-in link",
	})
}

func (h *AuthHandler) Signin(c fiber.Ctx) error {
	var req signinRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("", err)
	}
	if err := h.svc.Signin(c.Context(), req.Email); err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return badRequest("A valid email is required", err)
		}
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"success": true,
		"message": "If that address is registered, a sign-in link is on its way.",
	})
}

func (h *AuthHandler) Signout(c fiber.Ctx) error {
	clearSessionCookie(c, middleware.CandidateCookie, h.cookies)
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"success": true})
}

func (h *AuthHandler) Verify(c fiber.Ctx) error {
	tok := strings.TrimSpace(c.Query("token"))
	if tok == "" {
		return badRequest("Missing token", nil)
	}

	cand, session, err := h.svc.Verify(c.Context(), tok)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid or expired link", nil, err)
		}
		return mapUsecaseError(err, "")
	}

	setSessionCookie(c, middleware.CandidateCookie, session, h.cookies)
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"success": true,
		"candidate": fiber.Map{
			"id":    cand.ID,
			"email": cand.Email,
			"name":  cand.Name,
		},
	})
}
