package batch

import (
	"errors"

	"github.com/kilianp07/gridmatch/core/model"
)

var (
	// ErrDuplicateOrder rejects an order reusing an id already seen on the
	// same side of its slot.
	ErrDuplicateOrder = errors.New("duplicate order id")
	// ErrSlotPanic reports a strategy that panicked while clearing a slot.
	ErrSlotPanic = errors.New("strategy panicked")
)

// RejectedOrder describes an order excluded from its book.
type RejectedOrder struct {
	MarketID string `json:"market_id"`
	TimeSlot string `json:"time_slot"`
	Side     string `json:"side"`
	// Index is the position of the order in its bids or offers list.
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// SlotFailure records a slot that produced no recommendations because of an
// internal error.
type SlotFailure struct {
	MarketID string
	TimeSlot string
	Err      error
}

func (f SlotFailure) Error() string {
	return "market " + f.MarketID + " slot " + f.TimeSlot + ": " + f.Err.Error()
}

func (f SlotFailure) Unwrap() error { return f.Err }

// Result is the output of one Run.
type Result struct {
	RunID           string                 `json:"run_id"`
	Strategy        string                 `json:"strategy"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Rejected        []RejectedOrder        `json:"rejected"`
	Failures        []SlotFailure          `json:"-"`
	// Skipped counts slots left uncleared because the context ended.
	Skipped int `json:"skipped"`
}

// Err joins the slot failures, nil when every slot succeeded.
func (r Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
