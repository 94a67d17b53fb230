package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/rental-listings/internal/docstore"
	"github.com/iliyamo/rental-listings/internal/model"
)

// ListingRepo writes listings to the listings collection.
type ListingRepo struct {
	Store docstore.Store
	Path  docstore.Path
}

func NewListingRepo(store docstore.Store, appID string) *ListingRepo {
	return &ListingRepo{Store: store, Path: docstore.Path{AppID: appID, Collection: docstore.CollectionListings}}
}

// Create inserts a listing and returns its new id.
func (r *ListingRepo) Create(ctx context.Context, l model.Listing) (string, error) {
	f, err := docstore.Encode(l)
	if err != nil {
		return "", err
	}
	id, err := r.Store.Insert(ctx, r.Path, f)
	if err != nil {
		return "", fmt.Errorf("ListingRepo.Create: %w", err)
	}
	return id, nil
}

// Overwrite replaces the whole stored listing with l.  Fields are never
// patched: whatever l holds becomes the record.
func (r *ListingRepo) Overwrite(ctx context.Context, l model.Listing) error {
	if l.ID == "" {
		return ErrMissingID
	}
	f, err := docstore.Encode(l)
	if err != nil {
		return err
	}
	if err := r.Store.Overwrite(ctx, r.Path, l.ID, f); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ListingRepo.Overwrite: %w", err)
	}
	return nil
}

// Delete removes a listing.  There is no soft delete.
func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, r.Path, id); err != nil {
		return fmt.Errorf("ListingRepo.Delete: %w", err)
	}
	return nil
}

// List reads all listings once, in store order.
func (r *ListingRepo) List(ctx context.Context) ([]model.Listing, error) {
	docs, err := docstore.Fetch(ctx, r.Store, r.Path)
	if err != nil {
		return nil, fmt.Errorf("ListingRepo.List: %w", err)
	}
	out := make([]model.Listing, 0, len(docs))
	for _, d := range docs {
		var l model.Listing
		if err := docstore.Decode(d, &l); err != nil {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
