package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-listings/internal/handler"
	"github.com/iliyamo/rental-listings/internal/middleware"
	"github.com/iliyamo/rental-listings/internal/session"
)

// RegisterOperator registers the console endpoints under /v1/admin.  All
// routes require a client session whose gate is unlocked.
func RegisterOperator(e *echo.Echo, sessions *session.Store, a *handler.AdminHandler, ed *handler.EditorHandler) {
	g := e.Group(
		"/v1/admin",
		middleware.ClientSession(sessions),
		middleware.RequireOperator(),
	)

	// ---- Dashboard ----
	g.GET("/stats", a.Stats)
	g.GET("/bookings", a.ListBookings)
	g.DELETE("/bookings/:id", a.DeleteBooking)
	g.DELETE("/listings/:id", a.DeleteListing)
	g.POST("/neighborhoods", a.AddNeighborhood)

	// ---- Listing editor ----
	g.GET("/editor", ed.Get)
	g.POST("/editor/new", ed.New)
	g.POST("/editor/edit/:id", ed.Edit)
	g.PUT("/editor/fields", ed.Fields)
	g.POST("/editor/images", ed.Images)
	g.DELETE("/editor/images/:index", ed.RemoveImage)
	g.POST("/editor/submit", ed.Submit)
	g.POST("/editor/close", ed.Close)
}
