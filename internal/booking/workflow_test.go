package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/iliyamo/rental-listings/internal/identity"
	"github.com/iliyamo/rental-listings/internal/model"
)

type fakeWriter struct {
	mu     sync.Mutex
	err    error
	stored []model.Booking
}

func (f *fakeWriter) Create(_ context.Context, b model.Booking) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, b)
	return "bk-1", nil
}

func (f *fakeWriter) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type chanNotifier chan model.Booking

func (c chanNotifier) BookingCreated(_ context.Context, b model.Booking) error {
	c <- b
	return nil
}

type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) hook(from, to State) {
	r.mu.Lock()
	r.steps = append(r.steps, from.String()+">"+to.String())
	r.mu.Unlock()
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

var (
	fixedNow = time.UnixMilli(1_700_000_000_000)
	villa    = model.Listing{ID: "L1", Name: "Villa X", Availability: model.Available, PricePerNight: 50000}
)

func signedIn() *identity.Session { return &identity.Session{UID: "u1", Anonymous: true} }

func newWorkflow(w Writer, rec *recorder, n Notifier) *Workflow {
	opts := Options{
		ResetDelay: 30 * time.Millisecond,
		Now:        func() time.Time { return fixedNow },
		Notifier:   n,
	}
	if rec != nil {
		opts.OnTransition = rec.hook
	}
	return New(w, signedIn, opts)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResetDelayDefault(t *testing.T) {
	assert.Equal(t, 2500*time.Millisecond, DefaultResetDelay)
	wf := New(&fakeWriter{}, signedIn, Options{})
	assert.Equal(t, DefaultResetDelay, wf.opts.ResetDelay)
}

func TestOpenRejectsOccupied(t *testing.T) {
	rec := &recorder{}
	wf := newWorkflow(&fakeWriter{}, rec, nil)

	occupied := villa
	occupied.Availability = model.Occupied
	assert.Equal(t, ErrNotAvailable, wf.Open(occupied))
	assert.Equal(t, Idle, wf.State())
	assert.Equal(t, 0, rec.len())
	assert.Equal(t, false, wf.View().ModalOpen)
}

func TestOpenWhileBusy(t *testing.T) {
	wf := newWorkflow(&fakeWriter{}, nil, nil)
	assert.Equal(t, wf.Open(villa), nil)
	assert.Equal(t, ErrBusy, wf.Open(villa))
	assert.Equal(t, FormOpen, wf.State())
}

func TestSubmitHappyPathResets(t *testing.T) {
	w := &fakeWriter{}
	rec := &recorder{}
	notes := make(chanNotifier, 1)
	wf := newWorkflow(w, rec, notes)

	assert.Equal(t, wf.Open(villa), nil)
	assert.Equal(t, wf.SetForm(Form{Name: " Awa ", Phone: "0700000000"}), nil)

	b, err := wf.Submit(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, "bk-1", b.ID)
	assert.Equal(t, Success, wf.State())
	assert.Equal(t, "bk-1", wf.View().BookingID)

	assert.Equal(t, 1, len(w.stored))
	got := w.stored[0]
	assert.Equal(t, "Awa", got.ClientName)
	assert.Equal(t, "0700000000", got.ClientPhone)
	assert.Equal(t, "L1", got.ListingID)
	assert.Equal(t, "Villa X", got.ListingName)
	assert.Equal(t, fixedNow.UnixMilli(), got.CreatedAt)
	assert.Equal(t, model.BookingStatusNew, got.Status)

	select {
	case n := <-notes:
		assert.Equal(t, "bk-1", n.ID)
	case <-time.After(time.Second):
		t.Fatal("notifier not called")
	}

	eventually(t, func() bool { return wf.State() == Idle })
	v := wf.View()
	assert.Equal(t, Form{}, v.Form)
	assert.Equal(t, true, v.Target == nil)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{
		"idle>target_selected",
		"target_selected>form_open",
		"form_open>submitting",
		"submitting>success",
		"success>idle",
	}, rec.steps)
}

func TestSubmitValidation(t *testing.T) {
	w := &fakeWriter{}
	wf := newWorkflow(w, nil, nil)
	assert.Equal(t, wf.Open(villa), nil)
	assert.Equal(t, wf.SetForm(Form{Name: "Awa", Phone: "   "}), nil)

	_, err := wf.Submit(context.Background())
	assert.Equal(t, ErrInvalidForm, err)
	assert.Equal(t, FormOpen, wf.State())
	assert.Equal(t, 0, len(w.stored))
}

func TestSubmitWithoutSession(t *testing.T) {
	w := &fakeWriter{}
	wf := New(w, func() *identity.Session { return nil }, Options{})
	assert.Equal(t, wf.Open(villa), nil)
	assert.Equal(t, wf.SetForm(Form{Name: "Awa", Phone: "07"}), nil)

	_, err := wf.Submit(context.Background())
	assert.Equal(t, ErrNoSession, err)
	assert.Equal(t, FormOpen, wf.State())
	assert.Equal(t, 0, len(w.stored))
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	boom := errors.New("permission denied")
	w := &fakeWriter{err: boom}
	wf := newWorkflow(w, nil, nil)
	assert.Equal(t, wf.Open(villa), nil)
	form := Form{Name: "Awa", Phone: "07"}
	assert.Equal(t, wf.SetForm(form), nil)

	_, err := wf.Submit(context.Background())
	assert.Equal(t, true, errors.Is(err, boom))
	assert.Equal(t, FormOpen, wf.State())
	assert.Equal(t, boom, wf.LastError())
	assert.Equal(t, form, wf.View().Form)
	assert.Equal(t, "permission denied", wf.View().Error)

	w.fail(nil)
	_, err = wf.Submit(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, Success, wf.State())
	assert.Equal(t, wf.LastError(), nil)
}

func TestCancel(t *testing.T) {
	wf := newWorkflow(&fakeWriter{}, nil, nil)
	assert.Equal(t, ErrNotOpen, wf.Cancel())

	assert.Equal(t, wf.Open(villa), nil)
	assert.Equal(t, wf.SetForm(Form{Name: "Awa"}), nil)
	assert.Equal(t, wf.Cancel(), nil)
	assert.Equal(t, Idle, wf.State())
	assert.Equal(t, Form{}, wf.View().Form)
	assert.Equal(t, ErrNotOpen, wf.SetForm(Form{Name: "x"}))
}

func TestCloseCancelsReset(t *testing.T) {
	rec := &recorder{}
	wf := newWorkflow(&fakeWriter{}, rec, nil)
	assert.Equal(t, wf.Open(villa), nil)
	assert.Equal(t, wf.SetForm(Form{Name: "Awa", Phone: "07"}), nil)
	_, err := wf.Submit(context.Background())
	assert.Equal(t, err, nil)

	wf.Close()
	steps := rec.len()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, Success, wf.State())
	assert.Equal(t, steps, rec.len())
	assert.Equal(t, ErrClosed, wf.Open(villa))
}
