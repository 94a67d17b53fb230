package model

// Neighborhood is a named area listings can be filed under.  Names are
// expected to be unique but nothing enforces it.
type Neighborhood struct {
    ID   string `json:"id,omitempty"`
    Name string `json:"name"`
}

// DefaultNeighborhoods is shown when the neighborhoods collection is empty
// or unreadable.  It is a display fallback and is never written back.
var DefaultNeighborhoods = []string{"Bingerville", "Cocody", "Marcory", "Plateau", "Yopougon"}
