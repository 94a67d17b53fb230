// Package mirror keeps in-memory copies of the listings, neighborhoods and
// bookings collections in step with the document store.  Subscriptions live
// as long as the identity session they were opened under.
package mirror

import (
	"context"
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/iliyamo/rental-listings/internal/docstore"
	"github.com/iliyamo/rental-listings/internal/identity"
	"github.com/iliyamo/rental-listings/internal/model"
)

// Mirror owns the three mirrored collections.
type Mirror struct {
	store docstore.Store
	appID string

	listings      *Collection[model.Listing]
	neighborhoods *Collection[string]
	bookings      *Collection[model.Booking]

	mu         sync.Mutex
	gen        uint64 // bumped on every teardown; stale streams are ignored
	cancel     context.CancelFunc
	sessionUID string
	loading    bool
	changed    chan struct{}
	wg         sync.WaitGroup
}

// New returns a mirror with empty collections.  Nothing is subscribed until
// a session appears (see Attach).
func New(store docstore.Store, appID string) *Mirror {
	return &Mirror{
		store:         store,
		appID:         appID,
		listings:      newCollection("listings", decodeListing, nil, nil),
		neighborhoods: newCollection("neighborhoods", decodeNeighborhood, sortNames, model.DefaultNeighborhoods),
		bookings:      newCollection("bookings", decodeBooking, newestFirst, nil),
		loading:       true,
		changed:       make(chan struct{}),
	}
}

func decodeListing(d docstore.Document) (model.Listing, bool, error) {
	var l model.Listing
	err := docstore.Decode(d, &l)
	return l, err == nil, err
}

func decodeNeighborhood(d docstore.Document) (string, bool, error) {
	var n model.Neighborhood
	if err := docstore.Decode(d, &n); err != nil {
		return "", false, err
	}
	return n.Name, n.Name != "", nil
}

func decodeBooking(d docstore.Document) (model.Booking, bool, error) {
	var b model.Booking
	err := docstore.Decode(d, &b)
	return b, err == nil, err
}

func sortNames(names []string) []string {
	sort.Strings(names)
	return names
}

func newestFirst(bs []model.Booking) []model.Booking {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].CreatedAt > bs[j].CreatedAt })
	return bs
}

// Attach follows the bootstrap's session.  The returned function stops
// following it; it does not tear down running subscriptions (see Close).
func (m *Mirror) Attach(b *identity.Bootstrap) func() {
	return b.Watch(m.SetSession)
}

// SetSession tears down the current subscriptions and, for a non-nil
// session, opens new ones.  Repeating the current session is a no-op.
func (m *Mirror) SetSession(s *identity.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s != nil && m.cancel != nil && s.UID == m.sessionUID {
		return
	}
	m.teardownLocked()
	if s == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.sessionUID = s.UID
	gen := m.gen
	glog.Infof("mirror: subscribing for session %s", s.UID)

	startStream(ctx, m, gen, docstore.CollectionListings, m.listings)
	startStream(ctx, m, gen, docstore.CollectionNeighborhoods, m.neighborhoods)
	startStream(ctx, m, gen, docstore.CollectionBookings, m.bookings)
}

// teardownLocked cancels all three subscriptions together.
func (m *Mirror) teardownLocked() {
	if m.cancel != nil {
		glog.Infof("mirror: tearing down subscriptions for session %s", m.sessionUID)
		m.cancel()
		m.cancel = nil
	}
	m.sessionUID = ""
	m.gen++
}

// startStream is a function rather than a method because methods cannot
// have type parameters.
func startStream[T any](ctx context.Context, m *Mirror, gen uint64, name string, c *Collection[T]) {
	path := docstore.Path{AppID: m.appID, Collection: name}
	ch, err := m.store.Subscribe(ctx, path)
	if err != nil {
		// report through the collection like any stream error, without
		// holding up the other subscriptions
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.deliver(gen, name, func() { c.apply(docstore.Snapshot{Err: err}) })
		}()
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for snap := range ch {
			m.deliver(gen, name, func() { c.apply(snap) })
		}
	}()
}

// deliver applies a snapshot unless its subscription was torn down, clears
// the loading flag on the first listings event and wakes Changed waiters.
func (m *Mirror) deliver(gen uint64, name string, apply func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	apply()
	if name == docstore.CollectionListings {
		m.loading = false
	}
	close(m.changed)
	m.changed = make(chan struct{})
}

// Close tears down subscriptions and waits for their goroutines.
func (m *Mirror) Close() {
	m.mu.Lock()
	m.teardownLocked()
	m.mu.Unlock()
	m.wg.Wait()
}

// Loading is true until the listings collection has reported once,
// successfully or not.
func (m *Mirror) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Subscribed reports whether subscriptions are open.
func (m *Mirror) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Changed returns a channel that is closed on the next applied snapshot.
func (m *Mirror) Changed() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

// Listings returns the listings in store order.
func (m *Mirror) Listings() []model.Listing { return m.listings.Items() }

// Neighborhoods returns neighborhood names sorted alphabetically, or the
// default set when the remote collection is empty or failing.
func (m *Mirror) Neighborhoods() []string { return m.neighborhoods.Items() }

// Bookings returns bookings newest first.
func (m *Mirror) Bookings() []model.Booking { return m.bookings.Items() }

// Listing finds a listing by id.
func (m *Mirror) Listing(id string) (model.Listing, bool) {
	for _, l := range m.listings.Items() {
		if l.ID == id {
			return l, true
		}
	}
	return model.Listing{}, false
}

// Errors returns the last stream error of each collection that has one.
func (m *Mirror) Errors() map[string]error {
	out := map[string]error{}
	if err := m.listings.Err(); err != nil {
		out[docstore.CollectionListings] = err
	}
	if err := m.neighborhoods.Err(); err != nil {
		out[docstore.CollectionNeighborhoods] = err
	}
	if err := m.bookings.Err(); err != nil {
		out[docstore.CollectionBookings] = err
	}
	return out
}
