package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RoleStudyClient is the role claim carried by tokens of study client
// backends.
const RoleStudyClient = "STUDY_CLIENT"

// RequireRole returns a middleware that enforces that the authenticated
// caller has one of the specified roles.  It assumes JWTAuth has stored the
// role under "role"; a missing or unknown role yields 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
