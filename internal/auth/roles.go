package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/grant-service/pkg/util/errorutil"
)

// RequirePermission rejects callers whose role may not perform op.
func RequirePermission(op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewInvalidActor()
		}
		if !Allowed(principal.User.Role, op) {
			return apperrors.NewForbidden(string(principal.User.Role) + " may not " + string(op))
		}
		return c.Next()
	}
}
