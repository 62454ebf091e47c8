package middleware

import "github.com/gofiber/fiber/v2"

// AdminCookieName is the boolean admin gate: the cookie must hold the
// configured token for mutating document routes to be reachable.
const AdminCookieName = "admin-auth"

// RequireAdmin guards a route behind the admin cookie. An empty configured
// token disables the gate (local development). There is a single admin
// role; no finer-grained access control exists.
func RequireAdmin(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		if c.Cookies(AdminCookieName) != token {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}
