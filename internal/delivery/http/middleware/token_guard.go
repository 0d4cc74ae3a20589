package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/crypto/bcrypt"
)

const (
	HeaderAdminToken = "X-Admin-Token"
	HeaderSyncToken  = "X-Sync-Token"
)

// TokenGuard admits requests whose header carries the shared secret, given
// either in plain text or as a bcrypt hash. With neither configured every
// request is refused.
type TokenGuard struct {
	header string
	plain  []byte
	hash   []byte
}

func NewTokenGuard(header, plain, bcryptHash string) *TokenGuard {
	return &TokenGuard{
		header: header,
		plain:  []byte(strings.TrimSpace(plain)),
		hash:   []byte(strings.TrimSpace(bcryptHash)),
	}
}

func (g *TokenGuard) Configured() bool {
	return len(g.plain) > 0 || len(g.hash) > 0
}

func (g *TokenGuard) Allows(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if len(g.plain) > 0 && subtle.ConstantTimeCompare([]byte(token), g.plain) == 1 {
		return true
	}
	if len(g.hash) > 0 && bcrypt.CompareHashAndPassword(g.hash, []byte(token)) == nil {
		return true
	}
	return false
}

func (g *TokenGuard) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !g.Configured() {
			return NewAppError(fiber.StatusServiceUnavailable, "", nil, nil)
		}
		if !g.Allows(c.Get(g.header)) {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
		return c.Next()
	}
}
