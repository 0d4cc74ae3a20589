// Package cache provides the job search cache: Redis when reachable, an
// in-process LRU otherwise.
package cache

import (
	"time"

	"fdeworld/internal/usecase"

	"go.uber.org/zap"
)

type Options struct {
	RedisAddr     string
	RedisPassword string
	TTL           time.Duration
	LRUSize       int
}

// New picks the backend. The returned closer releases the Redis client and
// is a no-op for the LRU.
func New(opts Options, logger *zap.SugaredLogger) (usecase.SearchCache, func() error, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.RedisAddr != "" {
		r := NewRedis(RedisOptions{Addr: opts.RedisAddr, Password: opts.RedisPassword, TTL: opts.TTL}, logger)
		if r.Available() {
			return r, r.Close, nil
		}
	}
	l, err := NewLRU(opts.LRUSize, opts.TTL)
	if err != nil {
		return nil, nil, err
	}
	logger.Infow("[Cache] using in-process LRU", "size", opts.LRUSize)
	return l, func() error { return nil }, nil
}
