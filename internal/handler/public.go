// Package handler exposes the HTTP API of the rental service: public browsing,
// the booking form, the operator gate, the operator console and the listing
// editor.  Per-browser state is reached through middleware.CurrentClient.
package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/identity"
    "github.com/iliyamo/rental-listings/internal/model"
    "github.com/iliyamo/rental-listings/internal/view"
)

// Catalog is the read side: the mirrored collections.
type Catalog interface {
    Loading() bool
    Listings() []model.Listing
    Listing(id string) (model.Listing, bool)
    Neighborhoods() []string
    Bookings() []model.Booking
    Changed() <-chan struct{}
}

// PublicHandler serves the browsing endpoints.
type PublicHandler struct {
    Identity *identity.Bootstrap
    Catalog  Catalog
}

// Status reports the identity state and whether listings have arrived yet.
func (h *PublicHandler) Status(c echo.Context) error {
    resp := echo.Map{
        "state":   h.Identity.State(),
        "loading": h.Catalog.Loading(),
        "session": h.Identity.Session(),
    }
    if err := h.Identity.Err(); err != nil {
        resp["error"] = err.Error()
    }
    return c.JSON(http.StatusOK, resp)
}

// Listings returns the listings matching ?search=&neighborhood=&type=.
func (h *PublicHandler) Listings(c echo.Context) error {
    var f view.Filter
    if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query"})
    }
    items := view.FilterListings(h.Catalog.Listings(), f)
    return c.JSON(http.StatusOK, echo.Map{
        "items":   items,
        "loading": h.Catalog.Loading(),
        "filter":  f,
    })
}

// Listing returns one listing with its cover image.
func (h *PublicHandler) Listing(c echo.Context) error {
    l, ok := h.Catalog.Listing(c.Param("id"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
    }
    return c.JSON(http.StatusOK, echo.Map{"listing": l, "cover": l.Cover()})
}

// Gallery steps through a listing's images: ?index=<current>&dir=next|prev.
// Without dir the index is only clamped.
func (h *PublicHandler) Gallery(c echo.Context) error {
    l, ok := h.Catalog.Listing(c.Param("id"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
    }
    i := 0
    if s := c.QueryParam("index"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid index"})
        }
        i = n
    }
    n := len(l.Images)
    switch c.QueryParam("dir") {
    case "next":
        i = view.NextImage(i, n)
    case "prev":
        i = view.PrevImage(i, n)
    case "":
        if i < 0 || i >= n {
            i = 0
        }
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "dir must be next or prev"})
    }
    resp := echo.Map{"index": i, "count": n}
    if n > 0 {
        resp["image"] = l.Images[i]
    }
    return c.JSON(http.StatusOK, resp)
}

// Neighborhoods returns the sorted names, or the default set.
func (h *PublicHandler) Neighborhoods(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"items": h.Catalog.Neighborhoods()})
}

// RoomTypes returns the fixed room type enumeration.
func (h *PublicHandler) RoomTypes(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"items": model.RoomTypes})
}
