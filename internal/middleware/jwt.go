// Package middleware contains the Echo middleware shared by the route
// groups: authentication, role checks, rate limiting, response caching
// and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/logging"
	"github.com/iliyamo/tour-booking/internal/utils"
)

// JWTAuth validates the Bearer access token and stores its claims on the
// context as "user_id" (uint64) and "role" (string).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)

			req := c.Request()
			ctx := logging.WithLogger(req.Context(), logging.FromContext(req.Context()).WithField("user_id", claims.UserID))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
