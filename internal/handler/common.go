// Package handler contains the Echo handlers for the public site, the
// checkout flow, admin authentication and the back office.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/logging"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

// invalidInput writes 400 with the per-field messages of an ozzo
// validation error when err carries one.
func invalidInput(c echo.Context, err error) error {
	body := echo.Map{"error": "validation failed"}
	var fields validation.Errors
	if errors.As(err, &fields) {
		body["fields"] = fields
	}
	return c.JSON(http.StatusBadRequest, body)
}

// serverError logs err against the request and writes a generic 500.
func serverError(c echo.Context, msg string, err error) error {
	logging.FromContext(c.Request().Context()).WithError(err).Error(msg)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

func queryUint(c echo.Context, name string) (uint64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return n
	}
	return def
}
