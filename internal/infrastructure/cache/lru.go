package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fdeworld/internal/usecase"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru"
)

const DefaultLRUSize = 512

type entry struct {
	value   []byte
	expires time.Time
}

// LRU is the in-process SearchCache used when Redis is not configured or
// not reachable. Entries expire lazily on read.
type LRU struct {
	mu    sync.Mutex
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
	gen   atomic.Int64
}

func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "create lru cache")
	}
	return &LRU{cache: c, ttl: ttl, now: time.Now}, nil
}

func (l *LRU) lookup(key string) ([]byte, bool) {
	v, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if !l.now().Before(e.expires) {
		l.cache.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (l *LRU) store(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = l.ttl
	}
	l.cache.Add(key, entry{value: value, expires: l.now().Add(ttl)})
}

func (l *LRU) GetJSON(_ context.Context, key string, out any) (bool, error) {
	l.mu.Lock()
	b, ok := l.lookup(key)
	l.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (l *LRU) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.store(key, b, ttl)
	l.mu.Unlock()
	return nil
}

func (l *LRU) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	l.cache.Remove(key)
	l.mu.Unlock()
	return nil
}

func (l *LRU) SetIfNotExists(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.lookup(key); ok {
		return false, nil
	}
	l.store(key, []byte(value), ttl)
	return true, nil
}

func (l *LRU) JobsGeneration(context.Context) (int64, error) {
	return l.gen.Load(), nil
}

func (l *LRU) InvalidateJobs(context.Context) error {
	l.gen.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range l.cache.Keys() {
		if s, ok := k.(string); ok && strings.HasPrefix(s, usecase.JobsPrefix) {
			l.cache.Remove(k)
		}
	}
	return nil
}

func (l *LRU) Ping(context.Context) error { return nil }

func (l *LRU) Len() int { return l.cache.Len() }

var _ usecase.SearchCache = (*LRU)(nil)
