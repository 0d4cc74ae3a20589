package middleware

import (
	"context"
	"strings"

	"fdeworld/internal/domain/employer"
	"fdeworld/internal/pkg/jwt"
	"fdeworld/internal/usecase"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
)

const (
	CandidateCookie = "fde_session"
	EmployerCookie  = "employer_session"
)

const (
	CtxCandidateIDKey = "candidate_id"
	CtxEmployerIDKey  = "employer_id"
	CtxSessionIDKey   = "session_id"
	CtxEmailKey       = "email"
)

// EmployerResolver maps a session id carried in a token to its employer.
type EmployerResolver interface {
	Resolve(ctx context.Context, sessionID string) (employer.Employer, error)
}

type AuthMiddleware struct {
	jwt       jwt.Service
	employers EmployerResolver
}

func NewAuthMiddleware(jwtSvc jwt.Service, employers EmployerResolver) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc, employers: employers}
}

// Candidate accepts the candidate cookie or a bearer token.
func (m *AuthMiddleware) Candidate() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, err := m.claims(c, CandidateCookie, jwt.RoleCandidate)
		if err != nil {
			return err
		}
		c.Locals(CtxCandidateIDKey, claims.SubjectID)
		c.Locals(CtxEmailKey, claims.Email)
		return c.Next()
	}
}

// Employer additionally checks the session row named by the token, so a
// signed-out session stops working before the token expires.
func (m *AuthMiddleware) Employer() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, err := m.claims(c, EmployerCookie, jwt.RoleEmployer)
		if err != nil {
			return err
		}
		if m.employers == nil {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
		e, err := m.employers.Resolve(c.Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				return NewAppError(fiber.StatusUnauthorized, "Session expired", nil, err)
			}
			return NewAppError(fiber.StatusInternalServerError, "", nil, err)
		}
		if e.ID != claims.SubjectID {
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, nil)
		}
		c.Locals(CtxEmployerIDKey, e.ID)
		c.Locals(CtxSessionIDKey, claims.SessionID)
		c.Locals(CtxEmailKey, e.Email)
		return c.Next()
	}
}

func (m *AuthMiddleware) claims(c fiber.Ctx, cookie, role string) (jwt.Claims, error) {
	token := strings.TrimSpace(c.Cookies(cookie))
	if token == "" {
		var ok bool
		token, ok = bearerTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return jwt.Claims{}, NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
	}

	claims, err := m.jwt.Validate(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return jwt.Claims{}, NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
		}
		return jwt.Claims{}, NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
	}
	if claims.Role != role {
		return jwt.Claims{}, NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, nil)
	}
	return claims, nil
}

func CandidateID(c fiber.Ctx) int64 {
	id, _ := c.Locals(CtxCandidateIDKey).(int64)
	return id
}

func EmployerID(c fiber.Ctx) int64 {
	id, _ := c.Locals(CtxEmployerIDKey).(int64)
	return id
}

func SessionID(c fiber.Ctx) string {
	sid, _ := c.Locals(CtxSessionIDKey).(string)
	return sid
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
