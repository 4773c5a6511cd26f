package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/connecta/citizen-service/internal/domain"
)

// RequireRole ensures the principal has one of the allowed roles. With no
// arguments any authenticated staff member passes.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		// Super admins pass every role gate.
		if principal.Role == domain.RoleSuperAdmin {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
