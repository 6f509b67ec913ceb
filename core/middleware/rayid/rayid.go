// Package rayid assigns a unique ray ID to every incoming request so that
// log lines emitted while handling it can be correlated.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the response header carrying the ray ID.
const Header = "X-Ray-Id"

// New returns a middleware that stores a fresh UUID under the "ray_id"
// local and echoes it in the response header. An incoming X-Ray-Id header
// is reused so upstream proxies can thread their own IDs through.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
