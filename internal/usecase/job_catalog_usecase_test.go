package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"fdeworld/internal/domain/job"
	"fdeworld/internal/repository"
	"fdeworld/internal/search"
)

type mockQueryRepo struct {
	page   job.Page
	err    error
	calls  int
	last   search.Predicate
	during func()
}

func (m *mockQueryRepo) Search(_ context.Context, pred search.Predicate, _ search.Sort, _ search.Pagination) (job.Page, error) {
	m.calls++
	m.last = pred
	if m.during != nil {
		m.during()
	}
	return m.page, m.err
}

type mockJobRepo struct {
	repository.JobRepository
	byURL map[string]job.Job
	err   error
}

func (m mockJobRepo) GetByURL(_ context.Context, u string) (job.Job, error) {
	if m.err != nil {
		return job.Job{}, m.err
	}
	j, ok := m.byURL[u]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (m mockJobRepo) Recent(_ context.Context, limit int) ([]job.Job, error) {
	return make([]job.Job, limit), m.err
}

type memCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated int
	gen         int64
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) SetIfNotExists(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = []byte(value)
	return true, nil
}

func (c *memCache) JobsGeneration(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *memCache) InvalidateJobs(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for k := range c.data {
		if strings.HasPrefix(k, JobsPrefix) {
			delete(c.data, k)
		}
	}
	c.invalidated++
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }

func TestJobCatalog_ListJobs_CachesByNormalizedFilter(t *testing.T) {
	q := &mockQueryRepo{page: job.Page{Jobs: []job.Job{{ID: 1, Title: "FDE"}}, Total: 41}}
	cache := newMemCache()
	uc := NewJobCatalogUsecase(q, mockJobRepo{}, cache, time.Minute, nil, nil)

	first, err := uc.ListJobs(context.Background(), JobSearchParams{
		Filter: search.JobFilter{RoleTypes: []string{"fde", "se"}, Search: " Kafka "},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.Total != 41 || first.Page != 1 || first.Limit != 20 || first.TotalPages != 3 {
		t.Fatalf("unexpected paging: %+v", first)
	}

	second, err := uc.ListJobs(context.Background(), JobSearchParams{
		Filter: search.JobFilter{RoleTypes: []string{"SE", "fde"}, Search: "kafka"},
		Page:   search.Pagination{Page: 1, Limit: 20},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.calls != 1 {
		t.Fatalf("expected one store query, got %d", q.calls)
	}
	if len(second.Jobs) != 1 || second.Jobs[0].Title != "FDE" {
		t.Fatalf("unexpected cached jobs: %+v", second.Jobs)
	}
	for k := range cache.data {
		if strings.HasPrefix(k, JobsLockPrefix) {
			t.Fatalf("lock key left behind: %s", k)
		}
	}
}

func TestJobCatalog_ListJobs_InvalidationForcesRequery(t *testing.T) {
	q := &mockQueryRepo{page: job.Page{Jobs: []job.Job{}, Total: 0}}
	cache := newMemCache()
	uc := NewJobCatalogUsecase(q, mockJobRepo{}, cache, time.Minute, nil, nil)

	params := JobSearchParams{Filter: search.JobFilter{Country: "US"}}
	if _, err := uc.ListJobs(context.Background(), params); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_ = cache.InvalidateJobs(context.Background())
	if _, err := uc.ListJobs(context.Background(), params); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.calls != 2 {
		t.Fatalf("expected 2 store queries, got %d", q.calls)
	}
}

func TestJobCatalog_ListJobs_FillDuringInvalidationIsNotServed(t *testing.T) {
	q := &mockQueryRepo{page: job.Page{Jobs: []job.Job{}, Total: 0}}
	cache := newMemCache()
	q.during = func() {
		q.during = nil
		_ = cache.InvalidateJobs(context.Background())
	}
	uc := NewJobCatalogUsecase(q, mockJobRepo{}, cache, time.Minute, nil, nil)

	params := JobSearchParams{Filter: search.JobFilter{RoleTypes: []string{"fde"}}}
	if _, err := uc.ListJobs(context.Background(), params); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	q.page = job.Page{Jobs: []job.Job{{ID: 7}}, Total: 1}
	got, err := uc.ListJobs(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.calls != 2 || got.Total != 1 {
		t.Fatalf("fill from before the invalidation was served: calls=%d total=%d", q.calls, got.Total)
	}
}

func TestJobCatalog_ListJobs_InnerWhitespaceIsDistinct(t *testing.T) {
	q := &mockQueryRepo{page: job.Page{Jobs: []job.Job{}, Total: 0}}
	cache := newMemCache()
	uc := NewJobCatalogUsecase(q, mockJobRepo{}, cache, time.Minute, nil, nil)

	if _, err := uc.ListJobs(context.Background(), JobSearchParams{Filter: search.JobFilter{Search: "foo  bar"}}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	double := q.last.Args
	if _, err := uc.ListJobs(context.Background(), JobSearchParams{Filter: search.JobFilter{Search: "foo bar"}}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.calls != 2 {
		t.Fatalf("expected both searches to reach the store, got %d calls", q.calls)
	}
	if double[0] == q.last.Args[0] {
		t.Fatalf("expected distinct LIKE patterns, both were %v", double[0])
	}
}

func TestJobCatalog_ListJobs_StoreErrorIsInternal(t *testing.T) {
	q := &mockQueryRepo{err: errors.New("disk on fire")}
	cache := newMemCache()
	uc := NewJobCatalogUsecase(q, mockJobRepo{}, cache, time.Minute, nil, nil)

	_, err := uc.ListJobs(context.Background(), JobSearchParams{})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	for k := range cache.data {
		t.Fatalf("nothing should be cached, found %s", k)
	}
}

func TestJobCatalog_ListJobs_NoCache(t *testing.T) {
	q := &mockQueryRepo{page: job.Page{Jobs: []job.Job{}, Total: 0}}
	uc := NewJobCatalogUsecase(q, mockJobRepo{}, nil, 0, nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := uc.ListJobs(context.Background(), JobSearchParams{}); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if q.calls != 2 {
		t.Fatalf("expected 2 store queries, got %d", q.calls)
	}
}

func TestJobCatalog_Lookup(t *testing.T) {
	uc := NewJobCatalogUsecase(nil, mockJobRepo{byURL: map[string]job.Job{"https://a/1": {ID: 1}}}, nil, 0, nil, nil)

	if _, err := uc.Lookup(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := uc.Lookup(context.Background(), "https://a/2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	j, err := uc.Lookup(context.Background(), "https://a/1")
	if err != nil || j.ID != 1 {
		t.Fatalf("unexpected lookup result: %+v %v", j, err)
	}
}

func TestJobCatalog_RecentLimits(t *testing.T) {
	uc := NewJobCatalogUsecase(nil, mockJobRepo{}, nil, 0, nil, nil)

	jobs, err := uc.Recent(context.Background(), 0)
	if err != nil || len(jobs) != 6 {
		t.Fatalf("expected 6 default recent jobs, got %d %v", len(jobs), err)
	}
	if _, err := uc.Recent(context.Background(), 51); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type stubFetcher struct {
	d   job.Detail
	err error
}

func (s stubFetcher) Fetch(context.Context, string, string) (job.Detail, error) { return s.d, s.err }

func TestJobCatalog_Detail(t *testing.T) {
	uc := NewJobCatalogUsecase(nil, mockJobRepo{}, nil, 0, stubFetcher{d: job.Detail{Title: "FDE"}}, nil)
	if _, err := uc.Detail(context.Background(), "ftp://x", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	d, err := uc.Detail(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "greenhouse")
	if err != nil || d.Title != "FDE" {
		t.Fatalf("unexpected detail: %+v %v", d, err)
	}

	uc = NewJobCatalogUsecase(nil, mockJobRepo{}, nil, 0, stubFetcher{err: errors.New("timeout")}, nil)
	if _, err := uc.Detail(context.Background(), "https://a/1", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobsSearchCacheKey_Normalization(t *testing.T) {
	a := JobsSearchCacheKey(search.JobFilter{Stages: []string{"Seed", "Series A"}, Search: "  Go Dev "}, search.Pagination{})
	b := JobsSearchCacheKey(search.JobFilter{Stages: []string{"Series A", "Seed", "Seed"}, Search: "go dev"}, search.Pagination{Page: 1, Limit: 20})
	if a != b {
		t.Fatalf("expected equal keys")
	}
	if JobsSearchCacheKey(search.JobFilter{Search: "go  dev"}, search.Pagination{}) == b {
		t.Fatalf("inner whitespace changes the LIKE pattern and must change the key")
	}
	if JobsSearchKeyAt(a, 1) == JobsSearchKeyAt(a, 2) {
		t.Fatalf("generations must not share keys")
	}
	c := JobsSearchCacheKey(search.JobFilter{Companies: search.IncludeCompanies("Acme")}, search.Pagination{})
	d := JobsSearchCacheKey(search.JobFilter{Companies: search.ExcludeCompanies("Acme")}, search.Pagination{})
	if c == d {
		t.Fatalf("include and exclude must not share a key")
	}
	if !strings.HasPrefix(a, JobsSearchPrefix) {
		t.Fatalf("unexpected prefix: %s", a)
	}
	if got := JobsSearchLockKey(a); !strings.HasPrefix(got, JobsLockPrefix) {
		t.Fatalf("unexpected lock key: %s", got)
	}
}
