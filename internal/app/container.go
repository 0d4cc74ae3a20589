package app

import (
	"context"
	"time"

	"fdeworld/internal/config"
	"fdeworld/internal/database/sqlite"
	"fdeworld/internal/infrastructure/cache"
	"fdeworld/internal/infrastructure/mailer"
	"fdeworld/internal/pkg/jwt"
	"fdeworld/internal/repository"
	"fdeworld/internal/scheduler"
	"fdeworld/internal/scraper"
	"fdeworld/internal/usecase"
	adminuc "fdeworld/internal/usecase/admin"
	candidateuc "fdeworld/internal/usecase/candidate"
	employeruc "fdeworld/internal/usecase/employer"
	"fdeworld/internal/ws"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Container owns the long-lived services. Close releases them in reverse
// order of construction.
type Container struct {
	Config config.Config
	Log    *zap.SugaredLogger

	Store     *sqlite.Store
	Cache     usecase.SearchCache
	Hub       *ws.Hub
	Sessions  jwt.Service
	Scheduler *scheduler.Scheduler

	Catalog    *usecase.JobCatalog
	Status     *usecase.Status
	Candidates *candidateuc.Service
	Employers  *employeruc.Service
	Admin      *adminuc.Service

	closeCache func() error
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	store := sqlite.New(sqlite.Options{
		Path:           cfg.Database.Path,
		FlushInterval:  cfg.Database.FlushInterval,
		ImportMinBytes: cfg.Database.SyncMinBytes,
		Logger:         logger,
	})
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := store.Open(openCtx); err != nil {
		return nil, errors.Wrapf(err, "open store %s", cfg.Database.Path)
	}

	searchCache, closeCache, err := cache.New(cache.Options{
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		TTL:           cfg.Cache.TTL,
		LRUSize:       cfg.Cache.Size,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "build search cache")
	}

	hub := ws.NewHub(logger)
	notifier := ws.NewNotifier(hub)
	sessions := jwt.NewHMACService(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	mail := mailer.NewLogMailer(cfg.App.AdminEmail, logger)
	details := scraper.NewFetcher(scraper.DefaultOptions(), logger)

	jobs := repository.NewJobRepository(store)
	candidates := repository.NewCandidateRepository(store)
	saved := repository.NewSavedJobRepository(store)
	employers := repository.NewEmployerRepository(store)
	submissions := repository.NewSubmissionRepository(store)

	catalog := usecase.NewJobCatalogUsecase(repository.NewJobQueryRepository(store), jobs, searchCache, cfg.Cache.TTL, details, logger)
	status := usecase.NewStatusUsecase(store, repository.NewCatalogStatusRepository(store), searchCache, logger)
	candidateSvc := candidateuc.NewService(candidates, saved, sessions, mail, cfg.App.PublicBaseURL, logger)
	employerSvc := employeruc.NewService(employers, submissions, jobs, details, sessions, mail, searchCache, notifier, cfg.App.PublicBaseURL, logger)
	adminSvc := adminuc.NewService(jobs, candidates, submissions, store, searchCache, notifier, logger)

	sched := scheduler.New(scheduler.Options{
		FlushEvery: cfg.Scheduler.FlushEvery,
		PurgeEvery: cfg.Scheduler.TokenPurgeEvery,
	}, store, map[string]scheduler.Purger{
		"candidate_tokens":  candidateSvc.PurgeExpiredTokens,
		"employer_sessions": employerSvc.PurgeExpiredSessions,
	}, logger)

	return &Container{
		Config:     cfg,
		Log:        logger,
		Store:      store,
		Cache:      searchCache,
		Hub:        hub,
		Sessions:   sessions,
		Scheduler:  sched,
		Catalog:    catalog,
		Status:     status,
		Candidates: candidateSvc,
		Employers:  employerSvc,
		Admin:      adminSvc,
		closeCache: closeCache,
	}, nil
}

// Start runs the background loops until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.Hub.Run(ctx)
	return c.Scheduler.Start(ctx)
}

// Close stops the scheduler, which performs a last flush, then closes the
// cache and the store.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.closeCache != nil {
		if err := c.closeCache(); err != nil {
			errs = append(errs, errors.Wrap(err, "close cache"))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close store"))
		}
	}
	return errors.Join(errs...)
}
