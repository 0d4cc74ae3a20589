package usecase

import (
	"context"
	"sync"
	"time"

	"fdeworld/internal/database"
	"fdeworld/internal/repository"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type StoreStatusSource interface {
	Status() database.Status
}

type StoreStatus struct {
	database.Status
	LastFlushAgo string `json:"last_flush_ago"`
}

type ServiceStatus struct {
	Store       StoreStatus               `json:"store"`
	Catalog     repository.CatalogSummary `json:"catalog"`
	Cache       string                    `json:"cache"`
	LastUpdated time.Time                 `json:"last_updated"`
}

type StatusUsecase interface {
	GetStatus(ctx context.Context) (ServiceStatus, error)
}

type Status struct {
	store   StoreStatusSource
	catalog repository.CatalogStatusRepository
	cache   SearchCache
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewStatusUsecase(store StoreStatusSource, catalog repository.CatalogStatusRepository, cache SearchCache, logger *zap.SugaredLogger) *Status {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Status{store: store, catalog: catalog, cache: cache, log: logger, now: time.Now}
}

// GetStatus reports partial data when a probe fails; only a failing
// catalog summary is an error.
func (u *Status) GetStatus(ctx context.Context) (ServiceStatus, error) {
	out := ServiceStatus{LastUpdated: u.now().UTC(), Cache: "disabled"}

	var (
		summary    repository.CatalogSummary
		errCatalog error
		errCache   error
	)

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		summary, errCatalog = u.catalog.Summary(ctx)
	}()

	if u.cache != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			errCache = u.cache.Ping(pctx)
		}()
	}

	wg.Wait()

	if errCatalog != nil {
		u.log.Errorw("[Status] catalog summary failed", "error", errCatalog)
		return ServiceStatus{}, ErrInternal
	}
	out.Catalog = summary

	if u.cache != nil {
		out.Cache = "ok"
		if errCache != nil {
			u.log.Warnw("[Status] cache ping failed", "error", errCache)
			out.Cache = "unavailable"
		}
	}

	if u.store != nil {
		st := u.store.Status()
		out.Store = StoreStatus{Status: st, LastFlushAgo: "never"}
		if !st.LastFlush.IsZero() {
			out.Store.LastFlushAgo = humanize.RelTime(st.LastFlush, u.now(), "ago", "from now")
		}
	}
	return out, nil
}
