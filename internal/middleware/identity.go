package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// callerID identifies the caller for rate limit keys: the admin's user id
// when JWTAuth ran, "anon" for the public site.
func callerID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		if v != 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}

// routeOf is the registered route pattern, or "unmatched" for 404s, so
// metric and key cardinality stays bounded.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
