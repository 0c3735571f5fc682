package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that rejects requesters whose role is not
// one of the given roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireHospitalAdmin gates routes to hospital admins and guarantees their
// token actually carries a hospital identity.
func RequireHospitalAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if RoleFromContext(ctx) != RoleHospital {
				return echo.NewHTTPError(http.StatusForbidden, "only hospital admins allowed")
			}
			if HospitalIDFromContext(ctx) == "" {
				return echo.NewHTTPError(http.StatusForbidden, "no hospital bound to this account")
			}
			return next(c)
		}
	}
}
