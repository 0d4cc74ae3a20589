package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// CookieOptions controls the session cookies set on sign-in.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func setSessionCookie(c fiber.Ctx, name, value string, opts CookieOptions) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(opts.TTL / time.Second),
		Secure:   opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c fiber.Ctx, name string, opts CookieOptions) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(1, 0),
		Secure:   opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
