package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/booking"
    "github.com/iliyamo/rental-listings/internal/middleware"
)

// BookingHandler drives the booking form of the calling client.
type BookingHandler struct {
    Catalog Catalog
}

type openBookingRequest struct {
    ListingID string `json:"listingId"`
}

// Get renders the booking modal state.
func (h *BookingHandler) Get(c echo.Context) error {
    return c.JSON(http.StatusOK, middleware.CurrentClient(c).Booking.View())
}

// Open targets a listing.  Occupied listings are refused with 409.
func (h *BookingHandler) Open(c echo.Context) error {
    var req openBookingRequest
    if err := c.Bind(&req); err != nil || req.ListingID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "listingId is required"})
    }
    l, ok := h.Catalog.Listing(req.ListingID)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
    }
    wf := middleware.CurrentClient(c).Booking
    if err := wf.Open(l); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, wf.View())
}

// Form stores the typed name and phone.
func (h *BookingHandler) Form(c echo.Context) error {
    var f booking.Form
    if err := c.Bind(&f); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    wf := middleware.CurrentClient(c).Booking
    if err := wf.SetForm(f); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, wf.View())
}

// Submit writes the booking.  A body, when sent, replaces the form first so
// a client can fill and submit in one request.
func (h *BookingHandler) Submit(c echo.Context) error {
    wf := middleware.CurrentClient(c).Booking
    if c.Request().ContentLength > 0 {
        var f booking.Form
        if err := c.Bind(&f); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
        }
        if err := wf.SetForm(f); err != nil {
            return fail(c, err)
        }
    }
    b, err := wf.Submit(c.Request().Context())
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"booking": b, "state": wf.View()})
}

// Cancel closes the form.
func (h *BookingHandler) Cancel(c echo.Context) error {
    wf := middleware.CurrentClient(c).Booking
    if err := wf.Cancel(); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, wf.View())
}
