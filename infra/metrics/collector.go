package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/gridmatch/core/events"
	coremetrics "github.com/kilianp07/gridmatch/core/metrics"
	"github.com/kilianp07/gridmatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// clearing events. It stops when the context is canceled or the bus closes.
// Sink errors are dropped: the collector must never block the publisher.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				collect(sink, ev, time.Now())
			}
		}
	}()
}

func collect(sink coremetrics.MetricsSink, ev eventbus.Event, now time.Time) {
	switch e := ev.(type) {
	case events.SlotCleared:
		energy, rate := coremetrics.ClearedVolume(e.Recommendations)
		_ = sink.RecordSlot(coremetrics.SlotSummary{
			RunID:        e.RunID,
			MarketID:     e.MarketID,
			TimeSlot:     e.TimeSlot,
			Strategy:     e.Strategy,
			Bids:         e.Bids,
			Offers:       e.Offers,
			Rejected:     e.Rejected,
			Matches:      len(e.Recommendations),
			Energy:       energy,
			ClearingRate: rate,
			Duration:     e.Duration,
			Failed:       e.Err != nil,
			Time:         now,
		})
	case events.OrderRejected:
		if r, ok := sink.(coremetrics.RejectionRecorder); ok {
			reason := ""
			if e.Err != nil {
				reason = e.Err.Error()
			}
			_ = r.RecordRejection(coremetrics.RejectedOrder{
				RunID:    e.RunID,
				MarketID: e.MarketID,
				TimeSlot: e.TimeSlot,
				Side:     e.Side.String(),
				Reason:   reason,
				Time:     now,
			})
		}
	case events.BatchCompleted:
		if r, ok := sink.(coremetrics.BatchRecorder); ok {
			_ = r.RecordBatch(coremetrics.BatchSummary{
				RunID:           e.RunID,
				Strategy:        e.Strategy,
				Markets:         e.Markets,
				Slots:           e.Slots,
				Recommendations: e.Recommendations,
				Rejected:        e.Rejected,
				Failures:        e.Failures,
				Duration:        e.Duration,
				Time:            now,
			})
		}
	}
}
