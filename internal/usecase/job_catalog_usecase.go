package usecase

import (
	"context"
	"net/url"
	"strings"
	"time"

	"fdeworld/internal/domain/job"
	"fdeworld/internal/metrics"
	"fdeworld/internal/repository"
	"fdeworld/internal/search"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type JobSearchParams struct {
	Filter search.JobFilter
	Page   search.Pagination
}

type JobSearchResult struct {
	Jobs       []job.Job `json:"jobs"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

type DetailFetcher interface {
	Fetch(ctx context.Context, jobURL, source string) (job.Detail, error)
}

// JobsNotifier tells live clients the catalog changed.
type JobsNotifier interface {
	NotifyJobsUpdated(reason string)
}

type JobCatalogUsecase interface {
	ListJobs(ctx context.Context, params JobSearchParams) (JobSearchResult, error)
	Stats(ctx context.Context) (job.Stats, error)
	CountsByRole(ctx context.Context) ([]job.RoleCount, error)
	Companies(ctx context.Context) ([]job.CompanyCount, error)
	Recent(ctx context.Context, limit int) ([]job.Job, error)
	Featured(ctx context.Context) ([]job.Job, error)
	Lookup(ctx context.Context, jobURL string) (job.Job, error)
	Detail(ctx context.Context, jobURL, source string) (job.Detail, error)
}

const (
	searchLockTTL  = 30 * time.Second
	searchLockWait = 300 * time.Millisecond
	featuredLimit  = 4
	recentLimit    = 6
	recentMaxLimit = 50
)

type JobCatalog struct {
	queries  repository.JobQueryRepository
	jobs     repository.JobRepository
	cache    SearchCache
	cacheTTL time.Duration
	details  DetailFetcher
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewJobCatalogUsecase(queries repository.JobQueryRepository, jobs repository.JobRepository, cache SearchCache, cacheTTL time.Duration, details DetailFetcher, logger *zap.SugaredLogger) *JobCatalog {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &JobCatalog{
		queries:  queries,
		jobs:     jobs,
		cache:    cache,
		cacheTTL: cacheTTL,
		details:  details,
		logger:   logger,
		now:      time.Now,
	}
}

// ListJobs answers a filtered search. Results are cached per normalized
// filter and page inside the current job generation; concurrent misses on
// one key wait briefly for the first caller to fill it.
func (u *JobCatalog) ListJobs(ctx context.Context, params JobSearchParams) (JobSearchResult, error) {
	page := params.Page.Clamp()

	cache := u.cache
	var cacheKey, lockKey string
	if cache != nil {
		gen, err := cache.JobsGeneration(ctx)
		if err != nil {
			u.logger.Warnw("[Cache] generation unavailable, bypassing", "error", err)
			cache = nil
		} else {
			cacheKey = JobsSearchKeyAt(JobsSearchCacheKey(params.Filter, page), gen)
			lockKey = JobsSearchLockKey(cacheKey)
		}
	}

	if cache != nil {
		var cached JobSearchResult
		hit, err := cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
			u.logger.Debugf("[Jobs] Cache HIT: %s", cacheKey)
			return cached, nil
		}
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		u.logger.Debugf("[Jobs] Cache MISS: %s", cacheKey)
	}

	lockAcquired := false
	if cache != nil {
		ok, err := cache.SetIfNotExists(ctx, lockKey, "1", searchLockTTL)
		if err == nil && ok {
			lockAcquired = true
		} else if err == nil && !ok {
			jitter := time.Duration(u.now().UnixNano()%201) * time.Millisecond
			select {
			case <-ctx.Done():
				return JobSearchResult{}, ctx.Err()
			case <-time.After(searchLockWait + jitter):
			}
			var cached JobSearchResult
			hit, err2 := cache.GetJSON(ctx, cacheKey, &cached)
			if err2 == nil && hit {
				metrics.SearchCacheTotal.WithLabelValues("hit_after_wait").Inc()
				return cached, nil
			}
			u.logger.Debugf("[Jobs] Lock wait fallback: %s", lockKey)
		}
	}

	pred := search.BuildPredicate(params.Filter, u.now())
	res, err := u.queries.Search(ctx, pred, params.Filter.Sort, page)
	if err != nil {
		if lockAcquired {
			_ = cache.Delete(ctx, lockKey)
		}
		u.logger.Errorw("[Jobs] search failed", "error", err)
		return JobSearchResult{}, ErrInternal
	}

	out := JobSearchResult{
		Jobs:       res.Jobs,
		Total:      res.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(res.Total),
	}

	if cache != nil {
		if err := cache.SetJSON(ctx, cacheKey, out, u.cacheTTL); err == nil {
			u.logger.Debugf("[Jobs] Cache SET: %s", cacheKey)
		}
		if lockAcquired {
			_ = cache.Delete(ctx, lockKey)
		}
	}
	return out, nil
}

func (u *JobCatalog) Stats(ctx context.Context) (job.Stats, error) {
	st, err := u.jobs.Stats(ctx)
	if err != nil {
		u.logger.Errorw("[Jobs] stats failed", "error", err)
		return job.Stats{}, ErrInternal
	}
	return st, nil
}

func (u *JobCatalog) CountsByRole(ctx context.Context) ([]job.RoleCount, error) {
	out, err := u.jobs.CountsByRole(ctx)
	if err != nil {
		u.logger.Errorw("[Jobs] role counts failed", "error", err)
		return nil, ErrInternal
	}
	return out, nil
}

func (u *JobCatalog) Companies(ctx context.Context) ([]job.CompanyCount, error) {
	out, err := u.jobs.Companies(ctx)
	if err != nil {
		u.logger.Errorw("[Jobs] companies failed", "error", err)
		return nil, ErrInternal
	}
	return out, nil
}

func (u *JobCatalog) Recent(ctx context.Context, limit int) ([]job.Job, error) {
	if limit == 0 {
		limit = recentLimit
	}
	if limit < 0 || limit > recentMaxLimit {
		return nil, ErrInvalidInput
	}
	out, err := u.jobs.Recent(ctx, limit)
	if err != nil {
		u.logger.Errorw("[Jobs] recent failed", "error", err)
		return nil, ErrInternal
	}
	return out, nil
}

func (u *JobCatalog) Featured(ctx context.Context) ([]job.Job, error) {
	out, err := u.jobs.Featured(ctx, featuredLimit)
	if err != nil {
		u.logger.Errorw("[Jobs] featured failed", "error", err)
		return nil, ErrInternal
	}
	return out, nil
}

func (u *JobCatalog) Lookup(ctx context.Context, jobURL string) (job.Job, error) {
	jobURL = strings.TrimSpace(jobURL)
	if jobURL == "" {
		return job.Job{}, ErrInvalidInput
	}
	j, err := u.jobs.GetByURL(ctx, jobURL)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return job.Job{}, ErrNotFound
		}
		u.logger.Errorw("[Jobs] lookup failed", "url", jobURL, "error", err)
		return job.Job{}, ErrInternal
	}
	return j, nil
}

// Detail fetches the live posting text. Failures upstream are reported as
// not found; the listing row stays authoritative.
func (u *JobCatalog) Detail(ctx context.Context, jobURL, source string) (job.Detail, error) {
	if !IsHTTPURL(jobURL) {
		return job.Detail{}, ErrInvalidInput
	}
	if u.details == nil {
		return job.Detail{}, ErrNotFound
	}
	d, err := u.details.Fetch(ctx, jobURL, source)
	if err != nil {
		u.logger.Warnw("[Jobs] detail fetch failed", "url", jobURL, "source", source, "error", err)
		return job.Detail{}, ErrNotFound
	}
	return d, nil
}

// IsHTTPURL accepts absolute http and https URLs with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
