package clearing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/gridmatch/core/model"
)

var (
	clearingLatency *prometheus.HistogramVec
	matchesTotal    *prometheus.CounterVec
	clearedEnergy   *prometheus.CounterVec
	slotsCleared    *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clearing_slot_duration_seconds",
			Help:    "Time spent clearing one time slot",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"strategy"},
	)
	matches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearing_matches_total",
			Help: "Number of bid/offer matches produced",
		},
		[]string{"strategy"},
	)
	energy := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearing_energy_total",
			Help: "Energy cleared in the external unit",
		},
		[]string{"strategy"},
	)
	slots := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearing_slots_total",
			Help: "Number of time slots cleared, by crossing outcome",
		},
		[]string{"strategy", "crossed"},
	)
	return lat, matches, energy, slots
}

func init() {
	clearingLatency, matchesTotal, clearedEnergy, slotsCleared = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers clearing metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(clearingLatency, matchesTotal, clearedEnergy, slotsCleared)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	clearingLatency, matchesTotal, clearedEnergy, slotsCleared = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

type instrumented struct {
	Strategy
}

// Instrument wraps s so every Clear call is recorded in the clearing
// collectors.
func Instrument(s Strategy) Strategy {
	if _, ok := s.(instrumented); ok {
		return s
	}
	return instrumented{Strategy: s}
}

func (i instrumented) Clear(bids, offers []model.Order) []Match {
	name := i.Name()
	start := time.Now()
	matches := i.Strategy.Clear(bids, offers)
	clearingLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	// summed in the external unit, an Energy sum of clamped matches overflows
	var total float64
	for _, m := range matches {
		total += m.Energy.External()
	}
	matchesTotal.WithLabelValues(name).Add(float64(len(matches)))
	clearedEnergy.WithLabelValues(name).Add(total)
	crossed := "false"
	if len(matches) > 0 {
		crossed = "true"
	}
	slotsCleared.WithLabelValues(name, crossed).Inc()
	return matches
}
