package identity

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// State describes where the bootstrap stands.
type State string

const (
	StatePending State = "pending" // Start has not finished
	StateReady   State = "ready"   // a session is established
	StateOffline State = "offline" // sign in failed or the session ended
)

// Bootstrap owns the process-wide session.  Start signs in exactly once;
// later identity changes go through Replace and SignOut.  Watchers see every
// change in order.
type Bootstrap struct {
	provider Provider
	once     sync.Once

	// notifyMu serialises changes so watchers observe them in order.
	notifyMu sync.Mutex

	mu       sync.Mutex
	session  *Session
	state    State
	err      error
	watchers map[int]func(*Session)
	nextID   int
}

// NewBootstrap returns a pending bootstrap.
func NewBootstrap(p Provider) *Bootstrap {
	return &Bootstrap{provider: p, state: StatePending, watchers: make(map[int]func(*Session))}
}

// Start establishes the session.  Only the first call does any work.  A
// failure is logged and leaves the bootstrap offline with a nil session.
func (b *Bootstrap) Start(ctx context.Context) {
	b.once.Do(func() {
		s, err := b.provider.EstablishSession(ctx)
		if err != nil {
			glog.Errorf("identity: establish session: %v", err)
			b.notifyMu.Lock()
			defer b.notifyMu.Unlock()
			b.mu.Lock()
			b.err = err
			b.state = StateOffline
			b.mu.Unlock()
			return
		}
		glog.Infof("identity: session %s established (anonymous=%v)", s.UID, s.Anonymous)
		b.Replace(s)
	})
}

// Session returns the current session or nil.
func (b *Bootstrap) Session() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// State returns the bootstrap state.
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the sign in error, if any.
func (b *Bootstrap) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Replace installs a new session (nil signs out) and notifies watchers.
// Watchers must not call Replace or SignOut themselves.
func (b *Bootstrap) Replace(s *Session) {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	b.session = s
	if s != nil {
		b.state = StateReady
		b.err = nil
	} else {
		b.state = StateOffline
	}
	fns := make([]func(*Session), 0, len(b.watchers))
	for _, fn := range b.watchers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// SignOut drops the current session.
func (b *Bootstrap) SignOut() { b.Replace(nil) }

// Watch calls fn with the current session right away and again on every
// change.  The returned function removes the watcher.
func (b *Bootstrap) Watch(fn func(*Session)) func() {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = fn
	current := b.session
	b.mu.Unlock()

	fn(current)
	return func() {
		b.mu.Lock()
		delete(b.watchers, id)
		b.mu.Unlock()
	}
}
