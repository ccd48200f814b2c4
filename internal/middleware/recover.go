package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/tour-booking/internal/logging"
)

// Recover is echo's recover middleware with the panic logged through the
// request logger and answered with the API's JSON error shape.
func Recover() echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize: 8 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logging.FromContext(c.Request().Context()).
				WithField("stack", string(stack)).
				Errorf("panic: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		},
	})
}
