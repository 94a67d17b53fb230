package model

import (
    "encoding/json"
    "math"
    "strconv"
    "strings"
)

// DefaultCity is the city every new listing starts with.  The service
// manages units in a single city.
const DefaultCity = "Abidjan"

// RoomType classifies a unit by its number of rooms.
type RoomType string

const (
    RoomStudio   RoomType = "Studio"
    RoomOne      RoomType = "1-room"
    RoomTwo      RoomType = "2-room"
    RoomThree    RoomType = "3-room"
    RoomFourPlus RoomType = "4-room-plus"
)

// RoomTypes lists the valid room types in display order.
var RoomTypes = []RoomType{RoomStudio, RoomOne, RoomTwo, RoomThree, RoomFourPlus}

// Valid reports whether t is one of RoomTypes.
func (t RoomType) Valid() bool {
    for _, rt := range RoomTypes {
        if rt == t {
            return true
        }
    }
    return false
}

// Availability tells visitors whether a unit can be booked.
type Availability string

const (
    Available Availability = "available"
    Occupied  Availability = "occupied"
)

// Valid reports whether a is available or occupied.
func (a Availability) Valid() bool { return a == Available || a == Occupied }

// Price is a nightly price in whole currency units.  Stored documents
// written by older clients may hold the price as a string or leave it
// empty, so decoding never fails: anything that is not a number decodes
// to zero.  So do numbers outside the int64 range.
type Price int64

func priceFromFloat(f float64) Price {
    if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
        return 0
    }
    return Price(f)
}

// UnmarshalJSON accepts numbers and numeric strings.
func (p *Price) UnmarshalJSON(b []byte) error {
    *p = 0
    var v any
    if err := json.Unmarshal(b, &v); err != nil {
        return nil
    }
    switch t := v.(type) {
    case float64:
        *p = priceFromFloat(t)
    case string:
        s := strings.TrimSpace(t)
        if n, err := strconv.ParseInt(s, 10, 64); err == nil {
            *p = Price(n)
        } else if f, err := strconv.ParseFloat(s, 64); err == nil {
            *p = priceFromFloat(f)
        }
    }
    return nil
}

// Listing is a rental unit offered to visitors.
//
// Fields:
//  ID            – opaque id assigned by the document store.
//  Name          – display name, required.
//  City          – always DefaultCity for new listings.
//  Neighborhood  – name of a Neighborhood (soft reference, may dangle).
//  RoomType      – one of RoomTypes.
//  PricePerNight – non-negative nightly price.
//  Availability  – available or occupied.
//  Images        – embedded data URLs; Images[0] is the cover.
type Listing struct {
    ID            string       `json:"id,omitempty"`
    Name          string       `json:"name"`
    City          string       `json:"city"`
    Neighborhood  string       `json:"neighborhood"`
    RoomType      RoomType     `json:"roomType"`
    PricePerNight Price        `json:"pricePerNight"`
    Availability  Availability `json:"availability"`
    Images        []string     `json:"images"`
}

// Cover returns the cover image or an empty string when the listing has
// no images.
func (l Listing) Cover() string {
    if len(l.Images) == 0 {
        return ""
    }
    return l.Images[0]
}

// IsAvailable reports whether the listing accepts booking requests.
func (l Listing) IsAvailable() bool { return l.Availability == Available }

// Clone returns a copy that shares no slices with l.
func (l Listing) Clone() Listing {
    c := l
    if l.Images != nil {
        c.Images = make([]string, len(l.Images))
        copy(c.Images, l.Images)
    }
    return c
}
