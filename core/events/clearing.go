package events

import (
	"time"

	"github.com/kilianp07/gridmatch/core/model"
)

// SlotCleared is published once per (market, time slot) book.
type SlotCleared struct {
	RunID           string
	MarketID        string
	TimeSlot        string
	Strategy        string
	Bids            int
	Offers          int
	Rejected        int
	Recommendations []model.Recommendation
	Duration        time.Duration
	// Err is set when the slot failed and contributed no recommendations.
	Err error
}

// OrderRejected is published for each malformed order.
type OrderRejected struct {
	RunID    string
	MarketID string
	TimeSlot string
	Side     model.Side
	Index    int
	Err      error
}

// BatchCompleted is published when a runner invocation finishes.
type BatchCompleted struct {
	RunID           string
	Strategy        string
	Markets         int
	Slots           int
	Recommendations int
	Rejected        int
	Failures        int
	Duration        time.Duration
}
