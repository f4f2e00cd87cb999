package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness endpoint for load balancers.  It does not look at the
// database; use GET / or /v1/status for that.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
