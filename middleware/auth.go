package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"lms/core"
	"lms/utils"
)

const identityKey = "identity"

// Authenticate verifies the bearer credential and stores the resulting
// Identity in the request locals. Missing and invalid credentials get the
// same 401 but are logged apart.
func Authenticate(verifier *core.Verifier, logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := verifier.Verify(c.Get("Authorization"))
		if err != nil {
			if errors.Is(err, core.ErrMissingCredential) {
				logger.Printf("auth: no credential for %s %s", c.Method(), c.Path())
			} else {
				logger.Printf("auth: rejected credential for %s %s: %v", c.Method(), c.Path(), err)
			}
			return utils.Unauthorized(c, "Unauthorized")
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

// RequireRoles gates a route on the allowed role set. Must run after
// Authenticate.
func RequireRoles(allowed ...core.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}
		if err := core.AuthorizeRole(id, allowed...); err != nil {
			return utils.Forbidden(c, "Insufficient permissions for this operation")
		}
		return c.Next()
	}
}

// IdentityFrom returns the verified Identity stored by Authenticate.
// Handlers always take the identity from here explicitly; there is no
// ambient current user anywhere else.
func IdentityFrom(c *fiber.Ctx) (core.Identity, bool) {
	id, ok := c.Locals(identityKey).(core.Identity)
	return id, ok
}
