package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the organizer key on manual-decision requests.
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey protects the manual booking-decision and tier-payment
// endpoints.  Only the bcrypt hash of the key is configured, so a leaked
// environment dump does not reveal the key itself.  An empty hash disables
// the check entirely (useful for local development) and logs a warning so
// the misconfiguration is visible in production logs.
func RequireAdminKey(hash string) echo.MiddlewareFunc {
	if hash == "" {
		log.Printf("admin-key middleware disabled: ADMIN_KEY_HASH is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	hashed := []byte(hash)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(AdminKeyHeader)
			if key == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing admin key"})
			}
			if err := bcrypt.CompareHashAndPassword(hashed, []byte(key)); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin key"})
			}
			return next(c)
		}
	}
}
