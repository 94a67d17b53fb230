package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-listings/internal/handler"
	"github.com/iliyamo/rental-listings/internal/middleware"
	"github.com/iliyamo/rental-listings/internal/session"
)

// RegisterClient registers the endpoints that act on the caller's client
// session: the booking form and the operator gate.  submitLimit guards
// booking submission.
func RegisterClient(e *echo.Echo, sessions *session.Store, b *handler.BookingHandler, v *handler.ViewHandler, submitLimit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.ClientSession(sessions))

	// ---- Booking ----
	g.GET("/booking", b.Get)
	g.POST("/booking/open", b.Open)
	g.PUT("/booking/form", b.Form)
	g.POST("/booking/submit", b.Submit, submitLimit)
	g.POST("/booking/cancel", b.Cancel)

	// ---- View / gate ----
	g.GET("/view", v.Get)
	g.POST("/view/toggle", v.Toggle)
	g.POST("/view/home", v.Home)
	g.POST("/admin/login", v.Login)
	g.POST("/admin/logout", v.Logout)
}
