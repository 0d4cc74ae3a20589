package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"fdeworld/internal/delivery/http/middleware"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/pkg/jwt"
	"fdeworld/internal/repository"
	"fdeworld/internal/testutil"
	adminuc "fdeworld/internal/usecase/admin"
	candidateuc "fdeworld/internal/usecase/candidate"
	employeruc "fdeworld/internal/usecase/employer"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type recordingMailer struct {
	mu    sync.Mutex
	links []string
	subs  []int64
}

func (m *recordingMailer) SendCandidateLink(_ context.Context, _, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *recordingMailer) SendEmployerLink(_ context.Context, _, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *recordingMailer) NotifyAdminSubmission(_ context.Context, _, _, _ string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, id)
	return nil
}

func (m *recordingMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.links)
	u, err := url.Parse(m.links[len(m.links)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

type stubDetails struct{ title string }

func (s stubDetails) Fetch(_ context.Context, jobURL, source string) (job.Detail, error) {
	return job.Detail{URL: jobURL, Source: source, Title: s.title, Text: "Ship software with customers."}, nil
}

type employerFixture struct {
	app  *fiber.App
	mail *recordingMailer
}

func newEmployerFixture(t *testing.T) employerFixture {
	t.Helper()
	store := testutil.NewStore(t)
	sessions := jwt.NewHMACService("handler-secret", time.Hour)
	mail := &recordingMailer{}

	jobs := repository.NewJobRepository(store)
	candidates := repository.NewCandidateRepository(store)
	submissions := repository.NewSubmissionRepository(store)

	candSvc := candidateuc.NewService(candidates, repository.NewSavedJobRepository(store), sessions, mail, "http://fde.test", nil)
	empSvc := employeruc.NewService(repository.NewEmployerRepository(store), submissions, jobs, stubDetails{title: "Forward Deployed Engineer"}, sessions, mail, nil, nil, "http://fde.test", nil)
	adminSvc := adminuc.NewService(jobs, candidates, submissions, store, nil, nil, nil)

	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())

	auth := middleware.NewAuthMiddleware(sessions, empSvc)
	NewEmployerHandler(empSvc, candSvc, CookieOptions{TTL: time.Hour}, nil).
		RegisterRoutes(app.Group("/api/employer"), auth.Employer(), nil)
	NewAdminHandler(adminSvc).RegisterRoutes(app.Group("/api/admin"), func(c fiber.Ctx) error { return c.Next() })

	return employerFixture{app: app, mail: mail}
}

func (f employerFixture) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestEmployerHandler_SubmitAndApprove(t *testing.T) {
	f := newEmployerFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/employer/signup", map[string]string{"name": "Grace", "email": "grace@acme.io"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/employer/signup", map[string]string{
		"name": "Grace", "email": "Grace@Acme.io", "company_name": "Acme",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/employer/auth?token=bogus", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, env := f.do(t, http.MethodGet, "/api/employer/auth?token="+url.QueryEscape(f.mail.lastToken(t)), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	session := findCookie(resp, middleware.EmployerCookie)
	require.NotNil(t, session)
	assert.NotNil(t, findCookie(resp, middleware.CandidateCookie), "employers are signed in as candidates too")

	var authed struct {
		Employer struct {
			CompanyName string `json:"company_name"`
		} `json:"employer"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &authed))
	assert.Equal(t, "Acme", authed.Employer.CompanyName)

	resp, _ = f.do(t, http.MethodGet, "/api/employer/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, env = f.do(t, http.MethodGet, "/api/employer/me", nil, session)
	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "grace@acme.io", me.Email)

	resp, _ = f.do(t, http.MethodPost, "/api/employer/jobs", map[string]string{"job_url": "not a url"}, session)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = f.do(t, http.MethodPost, "/api/employer/jobs", map[string]string{"job_url": "https://acme.io/careers/fde"}, session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	var submitted struct {
		SubmissionID int64   `json:"submission_id"`
		WasDuplicate bool    `json:"was_duplicate"`
		ScrapedTitle *string `json:"scraped_title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.False(t, submitted.WasDuplicate)
	require.NotNil(t, submitted.ScrapedTitle)
	assert.Equal(t, "Forward Deployed Engineer", *submitted.ScrapedTitle)
	assert.Equal(t, []int64{submitted.SubmissionID}, f.mail.subs)

	_, env = f.do(t, http.MethodPost, "/api/employer/jobs", map[string]string{"job_url": "https://acme.io/careers/fde"}, session)
	var again struct {
		WasDuplicate bool `json:"was_duplicate"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.True(t, again.WasDuplicate)

	approve := "/api/admin/employer-submissions/" + strconv.FormatInt(submitted.SubmissionID, 10) + "/approve"
	resp, _ = f.do(t, http.MethodPost, approve, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, approve, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/api/admin/employer-submissions/999/reject", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/employer/signout", nil, session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/api/employer/me", nil, session)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "signed out sessions are revoked server side")
}
