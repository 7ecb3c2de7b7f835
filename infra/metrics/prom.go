package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/gridmatch/core/metrics"
)

// PromSink records clearing summaries in Prometheus metrics.
type PromSink struct {
	slots    *prometheus.CounterVec
	energy   *prometheus.CounterVec
	rate     *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	rejected *prometheus.CounterVec
	batches  *prometheus.HistogramVec
}

// NewPromSink registers clearing metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		slots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridmatch_slots_total",
			Help: "Time slots processed by the batch runner",
		}, []string{"strategy", "failed"}),
		energy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridmatch_cleared_energy_total",
			Help: "Energy traded across all recommendations",
		}, []string{"strategy", "market_id"}),
		rate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gridmatch_clearing_rate",
			Help: "Energy weighted trade rate of the last cleared slot",
		}, []string{"strategy", "market_id"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridmatch_slot_seconds",
			Help:    "Wall time spent parsing, clearing and mapping one slot",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"strategy"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridmatch_rejected_orders_total",
			Help: "Orders excluded from their book",
		}, []string{"side"}),
		batches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridmatch_batch_seconds",
			Help:    "Duration of complete batch runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
	}
	var err error
	if s.slots, err = register(reg, s.slots); err != nil {
		return nil, err
	}
	if s.energy, err = register(reg, s.energy); err != nil {
		return nil, err
	}
	if s.rate, err = register(reg, s.rate); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.rejected, err = register(reg, s.rejected); err != nil {
		return nil, err
	}
	if s.batches, err = register(reg, s.batches); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSlot updates the per-slot counters.
func (s *PromSink) RecordSlot(sum coremetrics.SlotSummary) error {
	s.slots.WithLabelValues(sum.Strategy, strconv.FormatBool(sum.Failed)).Inc()
	s.latency.WithLabelValues(sum.Strategy).Observe(sum.Duration.Seconds())
	if sum.Energy > 0 {
		s.energy.WithLabelValues(sum.Strategy, sum.MarketID).Add(sum.Energy)
		s.rate.WithLabelValues(sum.Strategy, sum.MarketID).Set(sum.ClearingRate)
	}
	return nil
}

// RecordRejection counts rejected orders per side.
func (s *PromSink) RecordRejection(r coremetrics.RejectedOrder) error {
	s.rejected.WithLabelValues(r.Side).Inc()
	return nil
}

// RecordBatch observes the batch duration.
func (s *PromSink) RecordBatch(b coremetrics.BatchSummary) error {
	s.batches.WithLabelValues(b.Strategy).Observe(b.Duration.Seconds())
	return nil
}
