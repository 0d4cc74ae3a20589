package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fdeworld/internal/domain/employer"
	"fdeworld/internal/pkg/jwt"
	"fdeworld/internal/pkg/response"
	"fdeworld/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(NewErrorMiddleware(nil).Middleware())
	for _, h := range handlers {
		app.Use(h)
	}
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestErrorMiddleware_HidesServerErrors(t *testing.T) {
	app := newApp()
	app.Get("/bad", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusBadRequest, "Invalid id", map[string]string{"field": "id"}, nil)
	})
	app.Get("/boom", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusInternalServerError, "db exploded at /var/data", nil, errors.New("disk"))
	})
	app.Get("/plain", func(c fiber.Ctx) error { return errors.New("leaky detail") })
	app.Get("/panic", func(c fiber.Ctx) error { panic("oops") })

	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid id", env.Message)
	assert.JSONEq(t, `{"field":"id"}`, string(env.Data))

	for _, path := range []string{"/boom", "/plain", "/panic"} {
		status, env = do(t, app, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, fiber.StatusInternalServerError, status, path)
		assert.Equal(t, response.MessageInternalServerError, env.Message, path)
	}

	status, env = do(t, app, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, fiber.StatusNotFound, env.Status)
}

func TestAccessLog_SetsRequestID(t *testing.T) {
	app := newApp(NewAccessLogMiddleware(nil).Middleware())
	app.Get("/", func(c fiber.Ctx) error { return response.Success(c, fiber.StatusOK, response.MessageOK, nil) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "rid-1", resp.Header.Get(HeaderRequestID))
}

type stubResolver struct {
	employers map[string]employer.Employer
}

func (s stubResolver) Resolve(_ context.Context, sid string) (employer.Employer, error) {
	e, ok := s.employers[sid]
	if !ok {
		return employer.Employer{}, usecase.ErrUnauthorized
	}
	return e, nil
}

func TestAuthMiddleware_Candidate(t *testing.T) {
	svc := jwt.NewHMACService("secret", time.Hour)
	auth := NewAuthMiddleware(svc, nil)

	app := newApp()
	app.Get("/me", auth.Candidate(), func(c fiber.Ctx) error {
		return response.Success(c, fiber.StatusOK, response.MessageOK, CandidateID(c))
	})

	cand, err := svc.Issue(jwt.RoleCandidate, 7, "a@b.co", "")
	require.NoError(t, err)
	emp, err := svc.Issue(jwt.RoleEmployer, 7, "a@b.co", "sid")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CandidateCookie, Value: cand})
	status, env := do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "7", string(env.Data))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+cand)
	status, _ = do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+emp)
	status, _ = do(t, app, req)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthMiddleware_EmployerNeedsLiveSession(t *testing.T) {
	svc := jwt.NewHMACService("secret", time.Hour)
	auth := NewAuthMiddleware(svc, stubResolver{employers: map[string]employer.Employer{
		"live": {ID: 3, Email: "hr@acme.io"},
	}})

	app := newApp()
	app.Get("/me", auth.Employer(), func(c fiber.Ctx) error {
		return response.Success(c, fiber.StatusOK, response.MessageOK, SessionID(c))
	})

	live, err := svc.Issue(jwt.RoleEmployer, 3, "hr@acme.io", "live")
	require.NoError(t, err)
	revoked, err := svc.Issue(jwt.RoleEmployer, 3, "hr@acme.io", "gone")
	require.NoError(t, err)
	other, err := svc.Issue(jwt.RoleEmployer, 4, "x@acme.io", "live")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: EmployerCookie, Value: live})
	status, env := do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, `"live"`, string(env.Data))

	for _, tok := range []string{revoked, other} {
		req = httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: EmployerCookie, Value: tok})
		status, _ = do(t, app, req)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}
}

func TestTokenGuard(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	g := NewTokenGuard(HeaderSyncToken, "plain-secret", string(hash))
	assert.True(t, g.Allows("plain-secret"))
	assert.True(t, g.Allows("hashed-secret"))
	assert.False(t, g.Allows("nope"))
	assert.False(t, g.Allows(""))

	app := newApp(g.Middleware())
	app.Post("/sync", func(c fiber.Ctx) error { return response.Success(c, fiber.StatusOK, response.MessageOK, nil) })

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set(HeaderSyncToken, "plain-secret")
	status, _ := do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/sync", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)

	unset := newApp(NewTokenGuard(HeaderSyncToken, "", "").Middleware())
	unset.Post("/sync", func(c fiber.Ctx) error { return nil })
	req = httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set(HeaderSyncToken, "anything")
	status, _ = do(t, unset, req)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestRateLimiter(t *testing.T) {
	l, err := NewRateLimiter(2)
	require.NoError(t, err)
	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	unlimited, err := NewRateLimiter(0)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow("1.1.1.1"))
	}

	fresh, err := NewRateLimiter(1)
	require.NoError(t, err)
	app := newApp(fresh.Middleware())
	app.Post("/signin", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/signin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	status, env := do(t, app, httptest.NewRequest(http.MethodPost, "/signin", nil))
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, fiber.StatusTooManyRequests, env.Status)
}
