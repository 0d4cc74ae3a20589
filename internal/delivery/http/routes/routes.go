package routes

import (
	"net/http"

	"fdeworld/internal/delivery/http/handler"
	"fdeworld/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// Deps are the handlers and guards behind the public API. A nil handler
// leaves its routes unmounted.
type Deps struct {
	Health   *handler.HealthHandler
	Jobs     *handler.JobsHandler
	Auth     *handler.AuthHandler
	Account  *handler.AccountHandler
	Employer *handler.EmployerHandler
	Admin    *handler.AdminHandler

	Sessions    *middleware.AuthMiddleware
	AdminGuard  *middleware.TokenGuard
	SyncGuard   *middleware.TokenGuard
	AuthLimiter *middleware.RateLimiter

	Metrics http.Handler
}

type Registry struct {
	deps Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app.Group("/api"))
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.deps.Health != nil {
		r.deps.Health.RegisterRoutes(app)
	}
	if r.deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(r.deps.Metrics))
	}
}

func (r *Registry) registerAPI(api fiber.Router) {
	d := r.deps

	var limit fiber.Handler
	if d.AuthLimiter != nil {
		limit = d.AuthLimiter.Middleware()
	}

	if d.Jobs != nil {
		d.Jobs.RegisterRoutes(api.Group("/jobs"))
	}
	if d.Auth != nil {
		d.Auth.RegisterRoutes(api.Group("/auth"), limit)
	}
	if d.Sessions != nil {
		if d.Account != nil {
			d.Account.RegisterAccountRoutes(api.Group("/account", d.Sessions.Candidate()))
			d.Account.RegisterSavedRoutes(api.Group("/saved", d.Sessions.Candidate()))
		}
		if d.Employer != nil {
			d.Employer.RegisterRoutes(api.Group("/employer"), d.Sessions.Employer(), limit)
		}
	}
	if d.Admin != nil {
		admin := api.Group("/admin")
		if d.AdminGuard != nil {
			d.Admin.RegisterRoutes(admin, d.AdminGuard.Middleware())
		}
		if d.SyncGuard != nil {
			d.Admin.RegisterSyncRoutes(admin, d.SyncGuard.Middleware())
		}
	}
}
