// Package store persists one record per cleared time slot and lets callers
// query them back by market, slot, strategy and time range.
package store

import (
	"context"
	"time"

	"github.com/kilianp07/gridmatch/core/model"
)

// SlotRecord captures the outcome of clearing one (market, time slot) book.
type SlotRecord struct {
	Timestamp       time.Time              `json:"timestamp"`
	RunID           string                 `json:"run_id"`
	MarketID        string                 `json:"market_id"`
	TimeSlot        string                 `json:"time_slot"`
	Strategy        string                 `json:"strategy"`
	Bids            int                    `json:"bids"`
	Offers          int                    `json:"offers"`
	Rejected        int                    `json:"rejected"`
	ClearedEnergy   float64                `json:"cleared_energy"`
	ClearingRate    float64                `json:"clearing_rate"`
	Error           string                 `json:"error,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

// Query defines filters for retrieving records. Zero values match anything.
type Query struct {
	Start    time.Time
	End      time.Time
	RunID    string
	MarketID string
	TimeSlot string
	Strategy string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Matches reports whether rec satisfies every filter of q except Limit.
func (q Query) Matches(rec SlotRecord) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if q.MarketID != "" && rec.MarketID != q.MarketID {
		return false
	}
	if q.TimeSlot != "" && rec.TimeSlot != q.TimeSlot {
		return false
	}
	if q.Strategy != "" && rec.Strategy != q.Strategy {
		return false
	}
	return true
}

func (q Query) limit(recs []SlotRecord) []SlotRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists SlotRecords and supports querying. Records are returned in
// append order.
type Store interface {
	Append(ctx context.Context, rec SlotRecord) error
	Query(ctx context.Context, q Query) ([]SlotRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, SlotRecord) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]SlotRecord, error) { return nil, nil }
func (NopStore) Close() error                                       { return nil }
