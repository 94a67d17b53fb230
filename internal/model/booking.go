package model

// BookingStatusNew is the only status a booking ever has.  Operators clear
// handled requests by deleting them.
const BookingStatusNew = "new"

// Booking is a visitor's request to reserve a listing.
//
// Fields:
//  ID          – opaque id assigned by the document store.
//  ClientName  – visitor name, required.
//  ClientPhone – visitor phone, required, free text.
//  ListingID   – id of the requested listing (soft reference).
//  ListingName – listing name at submission time, not kept in sync.
//  CreatedAt   – milliseconds since epoch; bookings sort newest first.
//  Status      – always BookingStatusNew.
type Booking struct {
    ID          string `json:"id,omitempty"`
    ClientName  string `json:"clientName"`
    ClientPhone string `json:"clientPhone"`
    ListingID   string `json:"listingId"`
    ListingName string `json:"listingName"`
    CreatedAt   int64  `json:"createdAt"`
    Status      string `json:"status"`
}
