package mirror

import (
	"sync"

	"github.com/golang/glog"

	"github.com/iliyamo/rental-listings/internal/docstore"
)

// Collection is the local copy of one remote collection.  Every snapshot
// replaces the whole content; nothing is merged with what came before.
type Collection[T any] struct {
	name     string
	decode   func(docstore.Document) (T, bool, error)
	shape    func([]T) []T // ordering policy, may be nil
	fallback []T           // shown when the remote set is empty or failing

	mu       sync.RWMutex
	items    []T
	err      error
	received bool
}

func newCollection[T any](name string, decode func(docstore.Document) (T, bool, error), shape func([]T) []T, fallback []T) *Collection[T] {
	return &Collection[T]{name: name, decode: decode, shape: shape, fallback: fallback}
}

// apply installs a snapshot.  On error the previous content is kept, unless
// the collection has a fallback, which then takes over.
func (c *Collection[T]) apply(s docstore.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = true
	if s.Err != nil {
		glog.Errorf("mirror: %s snapshot: %v", c.name, s.Err)
		c.err = s.Err
		if c.fallback != nil {
			c.items = cloneSlice(c.fallback)
		}
		return
	}
	items := make([]T, 0, len(s.Docs))
	for _, d := range s.Docs {
		v, ok, err := c.decode(d)
		if err != nil {
			glog.Warningf("mirror: %s: skip document %s: %v", c.name, d.ID, err)
			continue
		}
		if ok {
			items = append(items, v)
		}
	}
	if c.shape != nil {
		items = c.shape(items)
	}
	if len(items) == 0 && c.fallback != nil {
		items = cloneSlice(c.fallback)
	}
	c.items = items
	c.err = nil
}

// Items returns a copy of the current content.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSlice(c.items)
}

// Err returns the error of the last snapshot, nil after a good one.
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Received reports whether any snapshot or error has arrived yet.
func (c *Collection[T]) Received() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.received
}

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
