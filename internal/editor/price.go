package editor

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/iliyamo/rental-listings/internal/model"
)

// FormPrice is the price typed into the form.  Unlike model.Price it only
// decodes from a whole JSON number and remembers whether one was given.
type FormPrice struct {
	value int64
	set   bool
}

// PriceOf returns a set price.
func PriceOf(n int64) FormPrice { return FormPrice{value: n, set: true} }

// Value returns the price and whether it was given.
func (p FormPrice) Value() (model.Price, bool) { return model.Price(p.value), p.set }

func (p FormPrice) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, p.value, 10), nil
}

func (p *FormPrice) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*p = FormPrice{}
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: price %s", ErrInvalidField, b)
	}
	*p = FormPrice{value: n, set: true}
	return nil
}
