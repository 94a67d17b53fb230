package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rental-listings/internal/auth"
    "github.com/iliyamo/rental-listings/internal/booking"
    "github.com/iliyamo/rental-listings/internal/editor"
    "github.com/iliyamo/rental-listings/internal/repository"
)

// statusFor maps domain errors to HTTP codes.  Anything unknown is a failed
// store write or read and maps to 502 so the browser can show the message.
func statusFor(err error) int {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, auth.ErrInvalidCredentials):
        return http.StatusUnauthorized
    case errors.Is(err, booking.ErrNoSession):
        return http.StatusServiceUnavailable
    case errors.Is(err, booking.ErrNotAvailable),
        errors.Is(err, booking.ErrBusy),
        errors.Is(err, booking.ErrNotOpen),
        errors.Is(err, booking.ErrClosed),
        errors.Is(err, editor.ErrNotOpen),
        errors.Is(err, editor.ErrBusy):
        return http.StatusConflict
    case errors.Is(err, booking.ErrInvalidForm),
        errors.Is(err, editor.ErrNameRequired),
        errors.Is(err, editor.ErrNegativePrice),
        errors.Is(err, editor.ErrInvalidField),
        errors.Is(err, editor.ErrNoImage),
        errors.Is(err, editor.ErrNotImage),
        errors.Is(err, repository.ErrEmptyName),
        errors.Is(err, repository.ErrMissingID):
        return http.StatusBadRequest
    case errors.Is(err, editor.ErrImageTooLarge):
        return http.StatusRequestEntityTooLarge
    }
    return http.StatusBadGateway
}

func fail(c echo.Context, err error) error {
    return c.JSON(statusFor(err), echo.Map{"error": err.Error()})
}
