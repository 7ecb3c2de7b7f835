package clearing

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridmatch/core/factory"
	"github.com/kilianp07/gridmatch/core/model"
)

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Equal(t, []string{ClusterFairName, PayAsBidName, PayAsClearName}, reg.Names())
	for alias, name := range aliases {
		s, err := reg.Create(factory.ModuleConfig{Type: alias})
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
}

func TestRegistry_ClusterFairConf(t *testing.T) {
	s, err := New(ClusterFairName, map[string]any{
		"policy": "reachable",
		"links":  []any{map[string]any{"from": "a", "to": "b", "capacity_kwh": 1}},
		"agents": map[string]any{"H": "a", "PV": "b"},
	}, nil)
	require.NoError(t, err)
	matches := s.Clear(
		bidsOf(orderSpec{id: "b", agent: "H", energy: 1, rate: 2}),
		offersOf(orderSpec{id: "o", agent: "PV", energy: 1, rate: 1}),
	)
	assert.Len(t, matches, 1)

	_, err = New(ClusterFairName, map[string]any{"policy": "teleport"}, nil)
	assert.Error(t, err)
	_, err = New("pay_as_nothing", nil, nil)
	assert.Error(t, err)
}

func TestInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	s := Instrument(Instrument(PayAsBid{}))
	assert.Equal(t, PayAsBidName, s.Name())
	s.Clear(
		bidsOf(orderSpec{id: "b", energy: 2, rate: 30}),
		offersOf(orderSpec{id: "o", energy: 1.5, rate: 20}),
	)
	s.Clear(nil, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(matchesTotal.WithLabelValues(PayAsBidName)))
	assert.Equal(t, 1.5, testutil.ToFloat64(clearedEnergy.WithLabelValues(PayAsBidName)))
	assert.Equal(t, 1.0, testutil.ToFloat64(slotsCleared.WithLabelValues(PayAsBidName, "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(slotsCleared.WithLabelValues(PayAsBidName, "false")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, n := range []string{"clearing_slot_duration_seconds", "clearing_matches_total", "clearing_energy_total", "clearing_slots_total"} {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}

func TestInstrument_ClampedEnergy(t *testing.T) {
	ResetMetrics(prometheus.NewRegistry())
	t.Cleanup(func() { ResetMetrics(nil) })

	bids := bidsOf(orderSpec{id: "b1", energy: 1e18, rate: 30}, orderSpec{id: "b2", energy: 1e18, rate: 25})
	offers := offersOf(orderSpec{id: "o1", energy: 1e18, rate: 10}, orderSpec{id: "o2", energy: 1e18, rate: 20})
	require.Equal(t, model.MaxEnergy, bids[0].Energy)

	var matches []Match
	require.NotPanics(t, func() { matches = Instrument(PayAsBid{}).Clear(bids, offers) })
	assert.Len(t, matches, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(matchesTotal.WithLabelValues(PayAsBidName)))
	assert.InDelta(t, 2*model.MaxEnergy.External(), testutil.ToFloat64(clearedEnergy.WithLabelValues(PayAsBidName)), 1e3)
}
