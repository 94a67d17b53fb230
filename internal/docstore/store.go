// Package docstore is the boundary to the hosted document database.  A store
// keeps collections of schemaless documents under namespaced paths and
// streams full snapshots of a collection to subscribers whenever it changes.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Collection names under an application namespace.
const (
	CollectionListings      = "listings"
	CollectionNeighborhoods = "neighborhoods"
	CollectionBookings      = "bookings"
)

// ErrNotFound is returned by Overwrite when the target document is missing.
var ErrNotFound = errors.New("document not found")

// Fields is the body of a document.  Values are JSON shaped: strings,
// float64, bool, nil, []any and map[string]any.
type Fields map[string]any

// Document is one record of a collection.  The id is the store's key and is
// never part of Fields.
type Document struct {
	ID     string
	Fields Fields
}

// Snapshot is the complete content of a collection at one point in time, or
// the error that prevented reading it.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Path addresses a collection inside an application namespace.
type Path struct {
	AppID      string
	Collection string
}

// String renders the path as artifacts/<app>/public/data/<collection>.
func (p Path) String() string {
	return "artifacts/" + p.AppID + "/public/data/" + p.Collection
}

// Store is implemented by every backend.
type Store interface {
	// Subscribe streams full snapshots of the collection: one right away and
	// one after every change.  Snapshots are never diffs.  The channel is
	// closed once ctx is done.
	Subscribe(ctx context.Context, path Path) (<-chan Snapshot, error)
	// Insert adds a document and returns the id the store assigned.
	Insert(ctx context.Context, path Path, fields Fields) (string, error)
	// Overwrite replaces the whole body of an existing document.  Fields
	// absent from the new body are gone afterwards.
	Overwrite(ctx context.Context, path Path, id string, fields Fields) error
	// Delete removes a document.  Deleting a missing document is not an error.
	Delete(ctx context.Context, path Path, id string) error
	Close() error
}

// NewID returns a new lexically sortable document id.
func NewID() string { return ulid.Make().String() }

// Encode converts a record into document fields.  A top level "id" key is
// dropped since ids live outside the body.
func Encode(v any) (Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	delete(f, "id")
	return f, nil
}

// Decode fills v from a document, exposing the document id as "id".
func Decode(d Document, v any) error {
	body := make(Fields, len(d.Fields)+1)
	for k, val := range d.Fields {
		body[k] = val
	}
	body["id"] = d.ID
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.ID, err)
	}
	return nil
}

// cloneValue deep copies a JSON shaped value.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Fields:
		return cloneFields(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// Fetch reads a collection once.
func Fetch(ctx context.Context, s Store, path Path) ([]Document, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch, err := s.Subscribe(ctx, path)
	if err != nil {
		return nil, err
	}
	select {
	case snap, ok := <-ch:
		if !ok {
			return nil, ctx.Err()
		}
		return snap.Docs, snap.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
