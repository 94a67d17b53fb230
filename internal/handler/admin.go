package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/repository"
    "github.com/iliyamo/rental-listings/internal/view"
)

// AdminHandler serves the operator console.  Routes are mounted behind
// middleware.RequireOperator.
type AdminHandler struct {
    Catalog       Catalog
    Listings      *repository.ListingRepo
    Bookings      *repository.BookingRepo
    Neighborhoods *repository.NeighborhoodRepo
}

// Stats returns the dashboard counters.
func (h *AdminHandler) Stats(c echo.Context) error {
    s := view.ComputeStats(h.Catalog.Listings(), h.Catalog.Bookings())
    return c.JSON(http.StatusOK, echo.Map{
        "stats":      s,
        "valueLabel": view.FormatValue(s.TotalValue),
    })
}

// ListBookings returns bookings newest first.
func (h *AdminHandler) ListBookings(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"items": h.Catalog.Bookings()})
}

// DeleteBooking clears a processed booking.
func (h *AdminHandler) DeleteBooking(c echo.Context) error {
    if err := h.Bookings.Delete(c.Request().Context(), c.Param("id")); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// DeleteListing removes a listing.  Bookings that reference it are kept.
func (h *AdminHandler) DeleteListing(c echo.Context) error {
    if err := h.Listings.Delete(c.Request().Context(), c.Param("id")); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

type addNeighborhoodRequest struct {
    Name string `json:"name"`
}

// AddNeighborhood stores a new neighborhood name.
func (h *AdminHandler) AddNeighborhood(c echo.Context) error {
    var req addNeighborhoodRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    id, err := h.Neighborhoods.Add(c.Request().Context(), req.Name)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": strings.TrimSpace(req.Name)})
}
