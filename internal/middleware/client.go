package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/session"
)

// ClientHeader and ClientCookie carry the client session id.  The header wins
// when both are present.
const (
    ClientHeader = "X-Client-Session"
    ClientCookie = "rsid"
)

const clientKey = "client"

// ClientSession attaches the browser's client session to the request,
// creating one when the request carries none or an expired one.  The id is
// echoed back in the header and in the cookie.
func ClientSession(store *session.Store) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(ClientHeader)
            if id == "" {
                if ck, err := c.Cookie(ClientCookie); err == nil {
                    id = ck.Value
                }
            }
            cl, _ := store.Acquire(id)
            if cl.ID != id {
                c.SetCookie(&http.Cookie{
                    Name:     ClientCookie,
                    Value:    cl.ID,
                    Path:     "/",
                    HttpOnly: true,
                    SameSite: http.SameSiteLaxMode,
                })
            }
            c.Response().Header().Set(ClientHeader, cl.ID)
            c.Set(clientKey, cl)
            return next(c)
        }
    }
}

// CurrentClient returns the client attached by ClientSession, or nil.
func CurrentClient(c echo.Context) *session.Client {
    cl, _ := c.Get(clientKey).(*session.Client)
    return cl
}
