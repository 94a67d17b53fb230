// Package session keeps the per-browser UI state on the server: the admin
// gate, the booking workflow and the listing editor of every client.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/iliyamo/rental-listings/internal/auth"
	"github.com/iliyamo/rental-listings/internal/booking"
	"github.com/iliyamo/rental-listings/internal/editor"
)

// DefaultTTL is how long an idle client is kept.
const DefaultTTL = 30 * time.Minute

// Client is the state of one browser.
type Client struct {
	ID      string
	Gate    *auth.Gate
	Booking *booking.Workflow
	Editor  *editor.Workflow
}

// Close stops the workflows.  A pending booking reset never fires after it.
func (c *Client) Close() {
	c.Booking.Close()
	c.Editor.Close()
}

// Factory builds a fresh client.
type Factory func(id string) *Client

// Store holds clients for a sliding idle TTL.
type Store struct {
	mu        sync.Mutex
	cache     *ttlcache.Cache[string, *Client]
	newClient Factory
}

// NewStore starts the expiry loop; it stops when ctx is done.
func NewStore(ctx context.Context, ttl time.Duration, newClient Factory) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache := ttlcache.New[string, *Client](
		ttlcache.WithTTL[string, *Client](ttl),
	)
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, i *ttlcache.Item[string, *Client]) {
		glog.V(1).Infof("session: client %s evicted (reason %d)", i.Key(), reason)
		i.Value().Close()
	})
	go cache.Start()
	go func() {
		<-ctx.Done()
		cache.Stop()
	}()
	return &Store{cache: cache, newClient: newClient}
}

// Get returns a live client and refreshes its TTL.
func (s *Store) Get(id string) (*Client, bool) {
	if id == "" {
		return nil, false
	}
	it := s.cache.Get(id)
	if it == nil {
		return nil, false
	}
	return it.Value(), true
}

// Acquire returns the client for id, creating one when id is unknown or
// expired.  Ids that are not UUIDs are replaced by a new one, so the
// returned id is the one the caller must hand back to the browser.
func (s *Store) Acquire(id string) (*Client, bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.Get(id); ok {
		return c, false
	}
	// An expired entry may still be held until the expiry loop runs.
	s.cache.Delete(id)
	c := s.newClient(id)
	c.ID = id
	s.cache.Set(id, c, ttlcache.DefaultTTL)
	return c, true
}

// Drop forgets a client and closes it.
func (s *Store) Drop(id string) {
	s.cache.Delete(id)
}

// Len is the number of held clients.
func (s *Store) Len() int { return s.cache.Len() }

// Close drops every client.
func (s *Store) Close() {
	s.cache.DeleteAll()
}
