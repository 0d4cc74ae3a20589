package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

const rateLimitClients = 4096

// RateLimiter keeps one token bucket per client IP. Buckets for the least
// recently seen clients are evicted once the table is full.
type RateLimiter struct {
	mu      sync.Mutex
	clients *lru.Cache
	limit   rate.Limit
	burst   int
}

func NewRateLimiter(perMinute int) (*RateLimiter, error) {
	cache, err := lru.New(rateLimitClients)
	if err != nil {
		return nil, err
	}
	if perMinute <= 0 {
		return &RateLimiter{clients: cache, limit: rate.Inf}, nil
	}
	return &RateLimiter{
		clients: cache,
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
	}, nil
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.clients.Get(key); ok {
		return v.(*rate.Limiter).Allow()
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.clients.Add(key, lim)
	return lim.Allow()
}

func (l *RateLimiter) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return NewAppError(fiber.StatusTooManyRequests, "Too many requests, try again in a minute", nil, nil)
		}
		return c.Next()
	}
}
