package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	RequesterIDHeader = "X-Requester-ID"
	RequesterIDKey    = "requesterID" // Key for storing the requester id in fiber.Ctx locals
)

// RequesterIdentity resolves who is calling and stores it under RequesterIDKey.
// The X-Requester-ID header wins; when it is absent and fallbackToIP is set,
// the client IP is used so anonymous callers share one rate-limit bucket per
// address. An empty id disables rate limiting for the request.
func RequesterIdentity(fallbackToIP bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(RequesterIDHeader))
		if id == "" && fallbackToIP {
			id = "ip:" + c.IP()
		}
		c.Locals(RequesterIDKey, id)
		return c.Next()
	}
}

// RequesterID returns the id stored by RequesterIdentity, or "".
func RequesterID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequesterIDKey).(string)
	return id
}
