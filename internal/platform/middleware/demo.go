package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DemoGuard rejects mutating requests when the server runs in demo mode.
// Reads stay open so a public demo can browse seeded records without letting
// visitors alter them.
func DemoGuard(enabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled {
				return next(c)
			}
			switch c.Request().Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				return echo.NewHTTPError(http.StatusForbidden, "demo mode: modifications are disabled")
			}
			return next(c)
		}
	}
}
