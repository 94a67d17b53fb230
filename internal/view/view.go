// Package view derives what the pages show from the mirrored collections.
// Everything here is pure: same inputs, same outputs, no I/O.
package view

import (
	"fmt"
	"strings"

	"github.com/iliyamo/rental-listings/internal/model"
)

// Filter is the visitor's search state.  Empty fields match everything.
type Filter struct {
	Search       string         `json:"search" query:"search"`
	Neighborhood string         `json:"neighborhood" query:"neighborhood"`
	RoomType     model.RoomType `json:"roomType" query:"type"`
}

// Match reports whether l passes the filter: the search term is a
// case-insensitive substring of the name and the neighborhood and room type
// equal the selected ones when set.
func (f Filter) Match(l model.Listing) bool {
	if !strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.Neighborhood != "" && l.Neighborhood != f.Neighborhood {
		return false
	}
	if f.RoomType != "" && l.RoomType != f.RoomType {
		return false
	}
	return true
}

// FilterListings keeps the listings matching f, in their original order.
func FilterListings(listings []model.Listing, f Filter) []model.Listing {
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Stats feeds the operator dashboard.
type Stats struct {
	Total        int   `json:"total"`
	Available    int   `json:"available"`
	BookingCount int   `json:"bookingCount"`
	TotalValue   int64 `json:"totalValue"`
}

// ComputeStats counts listings and bookings and sums nightly prices.
// Unreadable prices were already decoded as zero (see model.Price).
func ComputeStats(listings []model.Listing, bookings []model.Booking) Stats {
	s := Stats{Total: len(listings), BookingCount: len(bookings)}
	for _, l := range listings {
		if l.Availability == model.Available {
			s.Available++
		}
		s.TotalValue += int64(l.PricePerNight)
	}
	return s
}

// FormatValue renders a total in millions with one decimal, e.g. "12.3M".
func FormatValue(total int64) string {
	return fmt.Sprintf("%.1fM", float64(total)/1_000_000)
}
