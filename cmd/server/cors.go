package main

import (
	"net/http"

	"github.com/jub0bs/fcors"

	"github.com/iliyamo/rental-listings/internal/middleware"
)

// newCORS builds the CORS layer for the browser client.  "*" allows any
// origin.  Cross-origin clients carry their session in the X-Client-Session
// header since credentials are not allowed.
func newCORS(origins []string) (func(http.Handler) http.Handler, error) {
	var origin fcors.OptionAnon = fcors.FromAnyOrigin()
	if len(origins) > 0 && origins[0] != "*" {
		origin = fcors.FromOrigins(origins[0], origins[1:]...)
	}
	cors, err := fcors.AllowAccess(
		origin,
		fcors.WithMethods(
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		),
		fcors.WithRequestHeaders("Content-Type", middleware.ClientHeader),
		fcors.ExposeResponseHeaders(middleware.ClientHeader),
	)
	if err != nil {
		return nil, err
	}
	return cors, nil
}
