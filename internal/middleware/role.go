package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireOperator aborts with 403 unless the client's gate is unlocked.  It
// assumes ClientSession ran earlier in the chain.
func RequireOperator() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            cl := CurrentClient(c)
            if cl == nil || !cl.Gate.Authenticated() {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
