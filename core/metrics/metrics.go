package metrics

import (
	"errors"
	"time"

	"github.com/kilianp07/gridmatch/core/model"
)

// SlotSummary describes the clearing of one (market, time slot) book.
type SlotSummary struct {
	RunID    string
	MarketID string
	TimeSlot string
	Strategy string
	Bids     int
	Offers   int
	Rejected int
	Matches  int
	// Energy is the cleared quantity in the external unit.
	Energy float64
	// ClearingRate is the energy weighted average trade rate, zero when
	// nothing cleared.
	ClearingRate float64
	Duration     time.Duration
	Failed       bool
	Time         time.Time
}

// MetricsSink records per-slot clearing results for observability purposes.
type MetricsSink interface {
	RecordSlot(s SlotSummary) error
}

// BatchSummary describes one complete runner invocation.
type BatchSummary struct {
	RunID           string
	Strategy        string
	Markets         int
	Slots           int
	Recommendations int
	Rejected        int
	Failures        int
	Duration        time.Duration
	Time            time.Time
}

// BatchRecorder is implemented by sinks able to record batch summaries.
type BatchRecorder interface {
	RecordBatch(b BatchSummary) error
}

// RejectedOrder is recorded when an order is excluded from its book.
type RejectedOrder struct {
	RunID    string
	MarketID string
	TimeSlot string
	Side     string
	Reason   string
	Time     time.Time
}

// RejectionRecorder records malformed orders.
type RejectionRecorder interface {
	RecordRejection(r RejectedOrder) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSlot(SlotSummary) error        { return nil }
func (NopSink) RecordBatch(BatchSummary) error      { return nil }
func (NopSink) RecordRejection(RejectedOrder) error { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSlot forwards the summary to all sinks. Every sink is called; the
// returned error joins the individual failures.
func (m *MultiSink) RecordSlot(s SlotSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordSlot(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordBatch forwards batch summaries to sinks supporting them.
func (m *MultiSink) RecordBatch(b BatchSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(BatchRecorder); ok {
			if err := rec.RecordBatch(b); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordRejection forwards rejected orders to sinks supporting them.
func (m *MultiSink) RecordRejection(r RejectedOrder) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(RejectionRecorder); ok {
			if err := rec.RecordRejection(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ClearedVolume returns the traded energy of recs and its energy weighted
// average rate.
func ClearedVolume(recs []model.Recommendation) (energy, rate float64) {
	var value float64
	for _, rec := range recs {
		energy += rec.SelectedEnergy
		value += rec.SelectedEnergy * rec.TradeRate
	}
	if energy > 0 {
		rate = value / energy
	}
	return energy, rate
}
