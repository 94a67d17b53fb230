package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/rental-listings/internal/docstore"
	"github.com/iliyamo/rental-listings/internal/model"
)

// BookingRepo writes booking requests.
type BookingRepo struct {
	Store docstore.Store
	Path  docstore.Path
}

func NewBookingRepo(store docstore.Store, appID string) *BookingRepo {
	return &BookingRepo{Store: store, Path: docstore.Path{AppID: appID, Collection: docstore.CollectionBookings}}
}

// Create stores a booking and returns its id.
func (r *BookingRepo) Create(ctx context.Context, b model.Booking) (string, error) {
	f, err := docstore.Encode(b)
	if err != nil {
		return "", err
	}
	id, err := r.Store.Insert(ctx, r.Path, f)
	if err != nil {
		return "", fmt.Errorf("BookingRepo.Create: %w", err)
	}
	return id, nil
}

// Delete clears a handled booking.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, r.Path, id); err != nil {
		return fmt.Errorf("BookingRepo.Delete: %w", err)
	}
	return nil
}

// List reads all bookings once, newest first.
func (r *BookingRepo) List(ctx context.Context) ([]model.Booking, error) {
	docs, err := docstore.Fetch(ctx, r.Store, r.Path)
	if err != nil {
		return nil, fmt.Errorf("BookingRepo.List: %w", err)
	}
	out := make([]model.Booking, 0, len(docs))
	for _, d := range docs {
		var b model.Booking
		if err := docstore.Decode(d, &b); err == nil {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}
