package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fdeworld/internal/config"
	"fdeworld/internal/delivery/http/handler"
	"fdeworld/internal/delivery/http/middleware"
	"fdeworld/internal/delivery/http/routes"
	"fdeworld/internal/ws"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Database imports arrive as one request body.
const bodyLimit = 256 << 20

type App struct {
	Fiber     *fiber.App
	Handler   http.Handler
	Container *Container
}

// New builds the HTTP surface over c. Fiber serves the JSON API; the
// websocket endpoint is mounted beside it on a net/http mux because it
// needs to hijack the connection.
func New(c *Container) (*App, error) {
	cfg := c.Config
	f := fiber.New(fiber.Config{
		AppName:   cfg.App.AppName,
		BodyLimit: bodyLimit,
	})

	registerGlobalMiddleware(f, c.Log)

	limiter, err := middleware.NewRateLimiter(cfg.Auth.AuthRatePerMinute)
	if err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}
	adminPlain, adminHash := cfg.Auth.AdminSecrets()
	cookies := handler.CookieOptions{Secure: cfg.App.IsProduction(), TTL: cfg.Auth.SessionTTL}

	routes.NewRegistry(routes.Deps{
		Health:      handler.NewHealthHandler(c.Status),
		Jobs:        handler.NewJobsHandler(c.Catalog),
		Auth:        handler.NewAuthHandler(c.Candidates, cookies),
		Account:     handler.NewAccountHandler(c.Candidates, cookies),
		Employer:    handler.NewEmployerHandler(c.Employers, c.Candidates, cookies, c.Log),
		Admin:       handler.NewAdminHandler(c.Admin),
		Sessions:    middleware.NewAuthMiddleware(c.Sessions, c.Employers),
		AdminGuard:  middleware.NewTokenGuard(middleware.HeaderAdminToken, adminPlain, adminHash),
		SyncGuard:   middleware.NewTokenGuard(middleware.HeaderSyncToken, cfg.Auth.SyncToken, cfg.Auth.SyncTokenBcrypt),
		AuthLimiter: limiter,
		Metrics:     promhttp.Handler(),
	}).Register(f)

	mux := http.NewServeMux()
	mux.Handle("/ws/jobs", ws.NewHandler(c.Hub, c.Log))
	mux.Handle("/", adaptor.FiberApp(f))

	return &App{Fiber: f, Handler: mux, Container: c}, nil
}

// Bootstrap opens the container, starts its background loops and builds
// the app. The returned cleanup stops them and closes the store.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := c.Start(runCtx); err != nil {
		cancel()
		_ = c.Close()
		return nil, nil, err
	}

	a, err := New(c)
	if err != nil {
		cancel()
		_ = c.Close()
		return nil, nil, err
	}

	cleanup := func() error {
		err := c.Close()
		cancel()
		return err
	}
	return a, cleanup, nil
}

// Server wraps the app handler in an http.Server listening on addr.
func (a *App) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.SugaredLogger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", errors.New("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
