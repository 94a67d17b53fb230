// Package editor is the operator's create/edit form for listings.  It keeps a
// draft, stages picked images as embedded data URLs and writes the draft as a
// whole document on submit.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/iliyamo/rental-listings/internal/model"
)

// State of the editor.
type State int

const (
	Closed State = iota
	CreateOpen
	EditOpen
	Submitting
)

var stateNames = [...]string{"closed", "create_open", "edit_open", "submitting"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

var (
	ErrNotOpen       = errors.New("editor is not open")
	ErrBusy          = errors.New("editor is submitting")
	ErrNameRequired  = errors.New("name is required")
	ErrNegativePrice = errors.New("price must not be negative")
	ErrInvalidField  = errors.New("invalid field")
	ErrNoImage       = errors.New("no image at that index")
)

// Writer stores listings.
type Writer interface {
	Create(ctx context.Context, l model.Listing) (string, error)
	Overwrite(ctx context.Context, l model.Listing) error
}

// Fields are the scalar inputs of the form.
type Fields struct {
	Name          string             `json:"name"`
	City          string             `json:"city"`
	Neighborhood  string             `json:"neighborhood"`
	RoomType      model.RoomType     `json:"roomType"`
	PricePerNight FormPrice          `json:"pricePerNight"`
	Availability  model.Availability `json:"availability"`
}

// Upload is one picked image file.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Options tune a Workflow.
type Options struct {
	MaxImageBytes int64
	// OnTransition runs with the workflow locked.
	OnTransition func(from, to State)
}

// Workflow is the editor of one operator.
type Workflow struct {
	writer Writer
	opts   Options

	mu      sync.Mutex
	state   State
	gen     uint64
	draft   model.Listing
	choices []string
	editing bool
	lastErr error
}

func New(w Writer, opts Options) *Workflow {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	return &Workflow{writer: w, opts: opts}
}

func (w *Workflow) transitionLocked(to State) {
	from := w.state
	w.state = to
	if w.opts.OnTransition != nil {
		w.opts.OnTransition(from, to)
	}
}

func (w *Workflow) openLocked() bool { return w.state == CreateOpen || w.state == EditOpen }

// OpenCreate starts a blank draft.  neighborhoods are the names the form
// offers; the first one is preselected.
func (w *Workflow) OpenCreate(neighborhoods []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Submitting {
		return ErrBusy
	}
	w.gen++
	w.choices = append([]string(nil), neighborhoods...)
	w.draft = model.Listing{
		City:         model.DefaultCity,
		RoomType:     model.RoomStudio,
		Availability: model.Available,
	}
	if len(neighborhoods) > 0 {
		w.draft.Neighborhood = neighborhoods[0]
	}
	w.editing = false
	w.lastErr = nil
	w.transitionLocked(CreateOpen)
	return nil
}

// OpenEdit loads a copy of l into the draft.
func (w *Workflow) OpenEdit(l model.Listing, neighborhoods []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Submitting {
		return ErrBusy
	}
	w.gen++
	w.choices = append([]string(nil), neighborhoods...)
	w.draft = l.Clone()
	w.editing = true
	w.lastErr = nil
	w.transitionLocked(EditOpen)
	return nil
}

func (w *Workflow) neighborhoodAllowedLocked(name string) bool {
	if name == w.draft.Neighborhood {
		return true
	}
	for _, c := range w.choices {
		if c == name {
			return true
		}
	}
	return false
}

// SetFields replaces the scalar fields of the draft.  Images are untouched.
func (w *Workflow) SetFields(f Fields) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.openLocked() {
		return ErrNotOpen
	}
	if !w.neighborhoodAllowedLocked(f.Neighborhood) {
		return fmt.Errorf("%w: neighborhood %q", ErrInvalidField, f.Neighborhood)
	}
	if !f.RoomType.Valid() {
		return fmt.Errorf("%w: room type %q", ErrInvalidField, f.RoomType)
	}
	if !f.Availability.Valid() {
		return fmt.Errorf("%w: availability %q", ErrInvalidField, f.Availability)
	}
	price, ok := f.PricePerNight.Value()
	if !ok {
		return fmt.Errorf("%w: price is required", ErrInvalidField)
	}
	w.draft.Name = f.Name
	w.draft.City = f.City
	w.draft.Neighborhood = f.Neighborhood
	w.draft.RoomType = f.RoomType
	w.draft.PricePerNight = price
	w.draft.Availability = f.Availability
	return nil
}

// StageImages converts every file concurrently and appends each image as
// soon as it is ready, so images land in completion order.  Images that
// finish after the editor was closed or reopened are dropped; those that
// finish during a submit fail with ErrBusy.  Per-file errors are joined.
func (w *Workflow) StageImages(ctx context.Context, files []Upload) error {
	w.mu.Lock()
	if !w.openLocked() {
		w.mu.Unlock()
		return ErrNotOpen
	}
	gen := w.gen
	limit := w.opts.MaxImageBytes
	w.mu.Unlock()

	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)
	fail := func(name string, err error) {
		emu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		emu.Unlock()
	}
	for _, f := range files {
		wg.Add(1)
		go func(f Upload) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(f.Name, err)
				return
			}
			rc, err := f.Open()
			if err != nil {
				fail(f.Name, err)
				return
			}
			url, err := DataURL(rc, limit)
			rc.Close()
			if err != nil {
				fail(f.Name, err)
				return
			}
			switch err := w.appendImage(gen, url); {
			case errors.Is(err, errStale):
				glog.V(1).Infof("editor: dropped late image %s", f.Name)
			case err != nil:
				fail(f.Name, err)
			}
		}(f)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// errStale marks an image whose draft is gone.
var errStale = errors.New("draft replaced")

// appendImage refuses images while a submit is in flight: the draft being
// written was copied already.
func (w *Workflow) appendImage(gen uint64, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return errStale
	}
	if w.state == Submitting {
		return ErrBusy
	}
	if !w.openLocked() {
		return errStale
	}
	w.draft.Images = append(w.draft.Images, url)
	return nil
}

// RemoveImage drops the staged image at index i.
func (w *Workflow) RemoveImage(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.openLocked() {
		return ErrNotOpen
	}
	if i < 0 || i >= len(w.draft.Images) {
		return ErrNoImage
	}
	imgs := make([]string, 0, len(w.draft.Images)-1)
	imgs = append(imgs, w.draft.Images[:i]...)
	w.draft.Images = append(imgs, w.draft.Images[i+1:]...)
	return nil
}

// Submit writes the draft.  Editing replaces the whole stored record with the
// draft; creating inserts it.  On failure the form stays open with the error
// kept for LastError.
func (w *Workflow) Submit(ctx context.Context) (model.Listing, error) {
	w.mu.Lock()
	if !w.openLocked() {
		w.mu.Unlock()
		return model.Listing{}, ErrNotOpen
	}
	var verr error
	switch {
	case strings.TrimSpace(w.draft.Name) == "":
		verr = ErrNameRequired
	case w.draft.PricePerNight < 0:
		verr = ErrNegativePrice
	}
	if verr != nil {
		w.lastErr = verr
		w.mu.Unlock()
		return model.Listing{}, verr
	}
	prev := w.state
	gen := w.gen
	draft := w.draft.Clone()
	draft.Name = strings.TrimSpace(draft.Name)
	w.lastErr = nil
	w.transitionLocked(Submitting)
	w.mu.Unlock()

	var err error
	if prev == EditOpen {
		err = w.writer.Overwrite(ctx, draft)
	} else {
		draft.ID, err = w.writer.Create(ctx, draft)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return draft, err
	}
	if err != nil {
		glog.Errorf("editor: %s write failed: %v", prev, err)
		w.lastErr = err
		w.transitionLocked(prev)
		return model.Listing{}, fmt.Errorf("editor: submit: %w", err)
	}
	w.gen++
	w.draft = model.Listing{}
	w.choices = nil
	w.transitionLocked(Closed)
	return draft, nil
}

// Close discards the draft.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.draft = model.Listing{}
	w.choices = nil
	w.lastErr = nil
	if w.state != Closed {
		w.transitionLocked(Closed)
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastError returns the error of the last failed submission.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// View is what the editor form renders.
type View struct {
	State         string           `json:"state"`
	Open          bool             `json:"open"`
	Editing       bool             `json:"editing"`
	Draft         model.Listing    `json:"draft"`
	Neighborhoods []string         `json:"neighborhoods"`
	RoomTypes     []model.RoomType `json:"roomTypes"`
	Error         string           `json:"error,omitempty"`
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := View{
		State:         w.state.String(),
		Open:          w.state != Closed,
		Editing:       w.editing && w.state != Closed,
		Draft:         w.draft.Clone(),
		Neighborhoods: append([]string{}, w.choices...),
		RoomTypes:     model.RoomTypes,
	}
	if w.lastErr != nil {
		v.Error = w.lastErr.Error()
	}
	return v
}
