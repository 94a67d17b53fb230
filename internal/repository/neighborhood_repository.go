package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/rental-listings/internal/docstore"
	"github.com/iliyamo/rental-listings/internal/model"
)

// ErrEmptyName is returned when adding a blank neighborhood.
var ErrEmptyName = errors.New("empty name")

// NeighborhoodRepo appends to the neighborhoods collection.  Neighborhoods
// are never edited or deleted.
type NeighborhoodRepo struct {
	Store docstore.Store
	Path  docstore.Path
}

func NewNeighborhoodRepo(store docstore.Store, appID string) *NeighborhoodRepo {
	return &NeighborhoodRepo{Store: store, Path: docstore.Path{AppID: appID, Collection: docstore.CollectionNeighborhoods}}
}

// Add stores a trimmed, non-empty name.  Duplicates are not checked.
func (r *NeighborhoodRepo) Add(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	f, err := docstore.Encode(model.Neighborhood{Name: name})
	if err != nil {
		return "", err
	}
	id, err := r.Store.Insert(ctx, r.Path, f)
	if err != nil {
		return "", fmt.Errorf("NeighborhoodRepo.Add: %w", err)
	}
	return id, nil
}

// Names reads the stored names once, sorted.
func (r *NeighborhoodRepo) Names(ctx context.Context) ([]string, error) {
	docs, err := docstore.Fetch(ctx, r.Store, r.Path)
	if err != nil {
		return nil, fmt.Errorf("NeighborhoodRepo.Names: %w", err)
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		var n model.Neighborhood
		if err := docstore.Decode(d, &n); err == nil && n.Name != "" {
			out = append(out, n.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}
