package batch

import (
	"context"
	"time"

	"github.com/kilianp07/gridmatch/core/events"
	"github.com/kilianp07/gridmatch/core/metrics"
	"github.com/kilianp07/gridmatch/core/model"
	"github.com/kilianp07/gridmatch/core/store"
)

// record forwards one slot outcome to the store, the metrics sink and the
// event bus. Sink and store errors are logged, never returned.
func (r *Runner) record(ctx context.Context, runID string, t task, o outcome) {
	now := r.now()
	energy, rate := metrics.ClearedVolume(o.recs)
	for _, rej := range o.rejected {
		r.log.Warnf("market %s slot %s: %s %d rejected: %s", rej.MarketID, rej.TimeSlot, rej.Side, rej.Index, rej.Reason)
		if rec, ok := r.sink.(metrics.RejectionRecorder); ok {
			if err := rec.RecordRejection(metrics.RejectedOrder{
				RunID: runID, MarketID: rej.MarketID, TimeSlot: rej.TimeSlot,
				Side: rej.Side, Reason: rej.Reason, Time: now,
			}); err != nil {
				r.log.Warnf("record rejection: %v", err)
			}
		}
		if r.bus != nil {
			side := model.Bid
			if rej.Side == model.Offer.String() {
				side = model.Offer
			}
			r.bus.Publish(events.OrderRejected{
				RunID: runID, MarketID: rej.MarketID, TimeSlot: rej.TimeSlot,
				Side: side, Index: rej.Index, Err: rej.Err,
			})
		}
	}

	r.log.Debugw("slot cleared", map[string]any{
		"run_id":          runID,
		"market_id":       t.marketID,
		"time_slot":       t.timeSlot,
		"bids":            o.bids,
		"offers":          o.offers,
		"rejected":        len(o.rejected),
		"recommendations": len(o.recs),
		"energy":          energy,
		"duration_ms":     o.duration.Milliseconds(),
	})

	if err := r.sink.RecordSlot(metrics.SlotSummary{
		RunID:        runID,
		MarketID:     t.marketID,
		TimeSlot:     t.timeSlot,
		Strategy:     r.strategy.Name(),
		Bids:         o.bids,
		Offers:       o.offers,
		Rejected:     len(o.rejected),
		Matches:      len(o.recs),
		Energy:       energy,
		ClearingRate: rate,
		Duration:     o.duration,
		Failed:       o.err != nil,
		Time:         now,
	}); err != nil {
		r.log.Warnf("record slot metrics: %v", err)
	}

	if r.store != nil {
		rec := store.SlotRecord{
			Timestamp:       now,
			RunID:           runID,
			MarketID:        t.marketID,
			TimeSlot:        t.timeSlot,
			Strategy:        r.strategy.Name(),
			Bids:            o.bids,
			Offers:          o.offers,
			Rejected:        len(o.rejected),
			ClearedEnergy:   energy,
			ClearingRate:    rate,
			Recommendations: o.recs,
		}
		if o.err != nil {
			rec.Error = o.err.Error()
		}
		if err := r.store.Append(ctx, rec); err != nil {
			r.log.Warnf("store slot record: %v", err)
		}
	}

	if r.bus != nil {
		r.bus.Publish(events.SlotCleared{
			RunID:           runID,
			MarketID:        t.marketID,
			TimeSlot:        t.timeSlot,
			Strategy:        r.strategy.Name(),
			Bids:            o.bids,
			Offers:          o.offers,
			Rejected:        len(o.rejected),
			Recommendations: o.recs,
			Duration:        o.duration,
			Err:             o.err,
		})
	}
}

// complete publishes the batch summary.
func (r *Runner) complete(res Result, markets, slots int, d time.Duration) {
	r.log.Infof("run %s: strategy %s cleared %d/%d slots of %d markets, %d recommendations, %d rejected orders, %d failures",
		res.RunID, res.Strategy, slots-res.Skipped, slots, markets, len(res.Recommendations), len(res.Rejected), len(res.Failures))
	if rec, ok := r.sink.(metrics.BatchRecorder); ok {
		if err := rec.RecordBatch(metrics.BatchSummary{
			RunID:           res.RunID,
			Strategy:        res.Strategy,
			Markets:         markets,
			Slots:           slots - res.Skipped,
			Recommendations: len(res.Recommendations),
			Rejected:        len(res.Rejected),
			Failures:        len(res.Failures),
			Duration:        d,
			Time:            r.now(),
		}); err != nil {
			r.log.Warnf("record batch metrics: %v", err)
		}
	}
	if r.bus != nil {
		r.bus.Publish(events.BatchCompleted{
			RunID:           res.RunID,
			Strategy:        res.Strategy,
			Markets:         markets,
			Slots:           slots - res.Skipped,
			Recommendations: len(res.Recommendations),
			Rejected:        len(res.Rejected),
			Failures:        len(res.Failures),
			Duration:        d,
		})
	}
}
