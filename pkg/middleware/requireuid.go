package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireUID rejects requests that carry no uid header or cookie. When
// enabled is false it passes through; use DevLogin instead.
func RequireUID(enabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled {
				return next(c)
			}
			uid := c.Request().Header.Get(UIDHeader)
			if uid == "" {
				if ck, err := c.Cookie(UIDCookie); err == nil {
					uid = ck.Value
				}
			}
			if uid == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing uid"})
			}
			c.Set("uid", uid)
			return next(c)
		}
	}
}
