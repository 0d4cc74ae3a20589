package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	// JobsGeneration is the current job namespace version. Search keys
	// embed it, so a fill started before InvalidateJobs can never be read
	// after it.
	JobsGeneration(ctx context.Context) (int64, error)
	// InvalidateJobs bumps the generation, then drops every cached job
	// listing.
	InvalidateJobs(ctx context.Context) error
	Ping(ctx context.Context) error
}

// JobsChanged invalidates cached listings and tells live clients. Either
// dependency may be nil.
func JobsChanged(ctx context.Context, cache SearchCache, notifier JobsNotifier, logger *zap.SugaredLogger, reason string) {
	if cache != nil {
		if err := cache.InvalidateJobs(ctx); err != nil && logger != nil {
			logger.Warnw("[Cache] invalidate failed", "reason", reason, "error", err)
		}
	}
	if notifier != nil {
		notifier.NotifyJobsUpdated(reason)
	}
}
