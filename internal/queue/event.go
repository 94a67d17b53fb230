// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/rental-listings/internal/model"
)

// BookingCreatedQueue carries one message per stored booking request.
const BookingCreatedQueue = "booking.created"

// BookingCreatedEvent is published after a booking request is stored.  It
// carries enough for the log consumer without reading the document store.
type BookingCreatedEvent struct {
    BookingID   string `json:"booking_id"`
    ListingID   string `json:"listing_id"`
    ListingName string `json:"listing_name"`
    ClientName  string `json:"client_name"`
    Status      string `json:"status"`
    CreatedAt   string `json:"created_at"`
}

// NewBookingCreatedEvent builds the event of a stored booking.
func NewBookingCreatedEvent(b model.Booking) BookingCreatedEvent {
    return BookingCreatedEvent{
        BookingID:   b.ID,
        ListingID:   b.ListingID,
        ListingName: b.ListingName,
        ClientName:  b.ClientName,
        Status:      b.Status,
        CreatedAt:   time.UnixMilli(b.CreatedAt).UTC().Format(time.RFC3339),
    }
}
