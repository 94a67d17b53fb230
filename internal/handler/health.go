package handler // declare the package name; contains HTTP handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the process is running.  It does not
// look at the store; /v1/status reports that.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
