package cache

import (
	"github.com/gofiber/fiber/v2"

	applog "driveshare/internal/log"
)

// KeyFunc derives the cache key for a request; returning "" skips caching.
type KeyFunc func(c *fiber.Ctx) string

// QueryKey builds a KeyFunc joining a resource namespace with the request's
// canonicalized query parameters.
func QueryKey(resource string, params ...string) KeyFunc {
	return func(c *fiber.Ctx) string {
		q := map[string]string{}
		for _, p := range params {
			q[p] = c.Query(p)
		}
		return Key(resource, q)
	}
}

// Middleware serves cacheable GETs from the store and captures successful
// JSON responses on the way out. Diagnostic headers X-Cache and X-Cache-Key
// are set either way; they are not a client contract.
func Middleware(cc *Client, keyFn KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		key := keyFn(c)
		if key == "" {
			return c.Next()
		}
		c.Set("X-Cache-Key", key)

		if body, ok := cc.Get(c.Context(), key); ok {
			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(body)
		}

		c.Set("X-Cache", "MISS")
		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() == fiber.StatusOK {
			// Response body is buffered by fiber at this point; copy it, the
			// underlying buffer is reused between requests.
			body := make([]byte, len(c.Response().Body()))
			copy(body, c.Response().Body())
			cc.Set(c.Context(), key, body)
			applog.Info(c, "cache.fill", map[string]any{"key": key, "bytes": len(body)})
		}
		return nil
	}
}
