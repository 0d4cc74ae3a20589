package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"fdeworld/internal/usecase"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultTTL = 600 * time.Second

var ErrUnavailable = errors.New("redis unavailable")

type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger

	warnedUnavailable atomic.Bool
}

type RedisOptions struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// NewRedis connects and pings once. An unreachable server yields a Redis
// that bypasses every call; Available reports which one you got.
func NewRedis(opts RedisOptions, logger *zap.SugaredLogger) *Redis {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return &Redis{ttl: ttl, logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("[Cache] Redis unavailable, bypassing cache", "addr", addr, "error", err)
		_ = client.Close()
		return &Redis{ttl: ttl, logger: logger}
	}

	logger.Infow("[Cache] Redis connected", "addr", addr)
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Available() bool { return !r.isUnavailable() }

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warnw("[Cache] Redis unavailable, bypassing cache", "error", err)
	}
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return ErrUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.isUnavailable() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return ok, nil
}

// JobsGeneration reads the shared generation counter; a missing key is
// generation zero.
func (r *Redis) JobsGeneration(ctx context.Context) (int64, error) {
	if r.isUnavailable() {
		return 0, nil
	}
	gen, err := r.client.Get(ctx, usecase.JobsGenerationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		r.warnUnavailableOnce(err)
		return 0, err
	}
	return gen, nil
}

// InvalidateJobs bumps the generation so in-flight fills land in a dead
// namespace, then drops cached searches and fill locks.
func (r *Redis) InvalidateJobs(ctx context.Context) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Incr(ctx, usecase.JobsGenerationKey).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return errors.Wrap(err, "bump jobs generation")
	}
	return r.deleteByPattern(ctx, usecase.JobsPrefix+"*")
}

func (r *Redis) deleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				r.logger.Warnw("[Cache] Redis delete failed", "pattern", pattern, "error", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			r.logger.Warnw("[Cache] Redis delete failed", "pattern", pattern, "error", err)
		}
	}
	return iter.Err()
}

var _ usecase.SearchCache = (*Redis)(nil)
