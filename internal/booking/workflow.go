// Package booking drives a visitor's reservation request for one listing:
// pick a listing, fill in name and phone, submit, see the confirmation, and
// return to browsing on its own after a short delay.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/iliyamo/rental-listings/internal/identity"
	"github.com/iliyamo/rental-listings/internal/model"
)

// DefaultResetDelay is how long the confirmation stays up.
const DefaultResetDelay = 2500 * time.Millisecond

// State is a step of the booking flow.
type State int

const (
	Idle State = iota
	TargetSelected
	FormOpen
	Submitting
	Success
)

var stateNames = [...]string{"idle", "target_selected", "form_open", "submitting", "success"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

var (
	ErrNotAvailable = errors.New("listing is not available")
	ErrBusy         = errors.New("a booking is already in progress")
	ErrNotOpen      = errors.New("booking form is not open")
	ErrInvalidForm  = errors.New("name and phone are required")
	ErrNoSession    = errors.New("no active session")
	ErrClosed       = errors.New("booking workflow closed")
)

// Writer stores a booking and returns its id.
type Writer interface {
	Create(ctx context.Context, b model.Booking) (string, error)
}

// Notifier is told about stored bookings.  Failures are logged only.
type Notifier interface {
	BookingCreated(ctx context.Context, b model.Booking) error
}

// Form holds what the visitor typed.
type Form struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Options tune a Workflow.  Zero values pick the defaults.
type Options struct {
	ResetDelay time.Duration
	Now        func() time.Time
	Notifier   Notifier
	// OnTransition runs on every state change with the workflow locked; it
	// must not call back into the workflow.
	OnTransition func(from, to State)
}

// Workflow is the booking state machine of one visitor.
type Workflow struct {
	writer  Writer
	session func() *identity.Session
	opts    Options

	mu        sync.Mutex
	state     State
	target    *model.Listing
	form      Form
	lastErr   error
	bookingID string
	timer     *time.Timer
	resetGen  uint64
	closed    bool
}

// New returns an idle workflow.  session reports the current store session;
// submissions are refused while it returns nil.
func New(w Writer, session func() *identity.Session, opts Options) *Workflow {
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Workflow{writer: w, session: session, opts: opts}
}

func (w *Workflow) transitionLocked(to State) {
	from := w.state
	w.state = to
	if w.opts.OnTransition != nil {
		w.opts.OnTransition(from, to)
	}
}

func (w *Workflow) clearLocked() {
	w.target = nil
	w.form = Form{}
	w.lastErr = nil
	w.bookingID = ""
}

// Open targets a listing and opens the form.  Occupied listings are refused
// and leave the workflow untouched.
func (w *Workflow) Open(l model.Listing) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if !l.IsAvailable() {
		return ErrNotAvailable
	}
	if w.state != Idle {
		return ErrBusy
	}
	c := l.Clone()
	w.clearLocked()
	w.target = &c
	w.transitionLocked(TargetSelected)
	w.transitionLocked(FormOpen)
	return nil
}

// SetForm records the visitor's input.
func (w *Workflow) SetForm(f Form) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != FormOpen {
		return ErrNotOpen
	}
	w.form = f
	return nil
}

// Cancel closes the form without booking.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != FormOpen && w.state != TargetSelected {
		return ErrNotOpen
	}
	w.clearLocked()
	w.transitionLocked(Idle)
	return nil
}

// Submit writes the booking.  A failed write puts the form back so the
// visitor can retry; the error is also kept for LastError.  On success the
// workflow shows Success and resets itself after the reset delay.
func (w *Workflow) Submit(ctx context.Context) (model.Booking, error) {
	w.mu.Lock()
	if w.state != FormOpen || w.target == nil {
		w.mu.Unlock()
		return model.Booking{}, ErrNotOpen
	}
	name := strings.TrimSpace(w.form.Name)
	phone := strings.TrimSpace(w.form.Phone)
	if name == "" || phone == "" {
		w.lastErr = ErrInvalidForm
		w.mu.Unlock()
		return model.Booking{}, ErrInvalidForm
	}
	if w.session == nil || w.session() == nil {
		w.lastErr = ErrNoSession
		w.mu.Unlock()
		return model.Booking{}, ErrNoSession
	}
	b := model.Booking{
		ClientName:  name,
		ClientPhone: phone,
		ListingID:   w.target.ID,
		ListingName: w.target.Name,
		CreatedAt:   w.opts.Now().UnixMilli(),
		Status:      model.BookingStatusNew,
	}
	w.lastErr = nil
	w.transitionLocked(Submitting)
	w.mu.Unlock()

	id, err := w.writer.Create(ctx, b)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		if err != nil {
			return model.Booking{}, err
		}
		b.ID = id
		return b, nil
	}
	if err != nil {
		glog.Errorf("booking: write for listing %s failed: %v", b.ListingID, err)
		w.lastErr = err
		w.transitionLocked(FormOpen)
		w.mu.Unlock()
		return model.Booking{}, fmt.Errorf("booking: submit: %w", err)
	}
	b.ID = id
	w.bookingID = id
	w.transitionLocked(Success)
	w.resetGen++
	gen := w.resetGen
	w.timer = time.AfterFunc(w.opts.ResetDelay, func() { w.autoReset(gen) })
	w.mu.Unlock()

	if n := w.opts.Notifier; n != nil {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := n.BookingCreated(nctx, b); err != nil {
				glog.Warningf("booking: notify %s: %v", b.ID, err)
			}
		}()
	}
	return b, nil
}

// autoReset closes the confirmation.  Timers from an older submission or a
// closed workflow do nothing.
func (w *Workflow) autoReset(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || gen != w.resetGen || w.state != Success {
		return
	}
	w.timer = nil
	w.clearLocked()
	w.transitionLocked(Idle)
}

// Close tears the workflow down and cancels a pending reset.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.resetGen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastError returns the error of the last failed submission, nil otherwise.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// View is what the booking modal renders.
type View struct {
	State     string         `json:"state"`
	ModalOpen bool           `json:"modalOpen"`
	Target    *model.Listing `json:"target,omitempty"`
	Form      Form           `json:"form"`
	Success   bool           `json:"success"`
	BookingID string         `json:"bookingId,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// View returns a snapshot for rendering.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := View{
		State:     w.state.String(),
		ModalOpen: w.state != Idle,
		Form:      w.form,
		Success:   w.state == Success,
		BookingID: w.bookingID,
	}
	if w.target != nil {
		t := w.target.Clone()
		v.Target = &t
	}
	if w.lastErr != nil {
		v.Error = w.lastErr.Error()
	}
	return v
}
