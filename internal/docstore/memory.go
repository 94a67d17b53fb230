package docstore

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a MemoryStore after Close.
var ErrClosed = errors.New("docstore: store closed")

// MemoryStore keeps collections in process memory.  It is used for local
// runs and tests and behaves like the hosted store: writes fan out to
// subscribers as full snapshots in insertion order.
type MemoryStore struct {
	mu     sync.Mutex
	cols   map[string]*memCollection
	closed bool
}

type memCollection struct {
	order []string
	docs  map[string]Fields
	subs  map[chan struct{}]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cols: make(map[string]*memCollection)}
}

func (s *MemoryStore) collection(path Path) *memCollection {
	key := path.String()
	c, ok := s.cols[key]
	if !ok {
		c = &memCollection{docs: make(map[string]Fields), subs: make(map[chan struct{}]struct{})}
		s.cols[key] = c
	}
	return c
}

func (s *MemoryStore) load(path Path) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	c := s.collection(path)
	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, Document{ID: id, Fields: cloneFields(c.docs[id])})
	}
	return docs, nil
}

// notifyLocked wakes every subscriber of c.  s.mu must be held.
func (c *memCollection) notifyLocked() {
	for ch := range c.subs {
		signal(ch)
	}
}

func (s *MemoryStore) Subscribe(ctx context.Context, path Path) (<-chan Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	notify := make(chan struct{}, 1)
	s.collection(path).subs[notify] = struct{}{}
	s.mu.Unlock()

	stop := func() {
		s.mu.Lock()
		delete(s.collection(path).subs, notify)
		s.mu.Unlock()
	}
	load := func(context.Context) ([]Document, error) { return s.load(path) }
	return watch(ctx, load, notify, stop), nil
}

func (s *MemoryStore) Insert(ctx context.Context, path Path, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	c := s.collection(path)
	id := NewID()
	c.order = append(c.order, id)
	c.docs[id] = cloneFields(fields)
	c.notifyLocked()
	return id, nil
}

func (s *MemoryStore) Overwrite(ctx context.Context, path Path, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c := s.collection(path)
	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	c.docs[id] = cloneFields(fields)
	c.notifyLocked()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, path Path, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c := s.collection(path)
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.notifyLocked()
	return nil
}

// Close rejects further calls.  Open subscriptions see ErrClosed on their
// next reload.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, c := range s.cols {
		c.notifyLocked()
	}
	return nil
}
