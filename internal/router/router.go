package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-listings/internal/handler"
)

// RegisterRoutes registers the health check.  It can be used by load
// balancers or monitoring systems to verify that the process is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the browsing endpoints and the live feed.  They
// need no client session.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, live *handler.LiveHandler) {
	e.GET("/v1/status", p.Status)
	e.GET("/v1/listings", p.Listings)
	e.GET("/v1/listings/:id", p.Listing)
	// carousel: ?index=<current>&dir=next|prev
	e.GET("/v1/listings/:id/gallery", p.Gallery)
	e.GET("/v1/neighborhoods", p.Neighborhoods)
	e.GET("/v1/room-types", p.RoomTypes)
	e.GET("/v1/live", live.Live)
}
