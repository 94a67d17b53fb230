// Package repository defines the typed accessors over the document store
// used by the workflows and handlers, plus the error values they share.
// ErrNotFound tells handlers that the targeted record no longer exists
// (someone deleted it upstream), ErrMissingID that an update was attempted
// on a record that was never stored.
package repository

import "errors"

// ErrNotFound is returned when an overwrite targets a missing record.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrMissingID is returned when an overwrite is attempted without an id.
var ErrMissingID = errors.New("missing id")
