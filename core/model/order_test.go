package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderFromPayload_Bid(t *testing.T) {
	p := Payload{
		"id":          "b1",
		"buyer":       "H1",
		"energy":      1.5,
		"energy_rate": 30.0,
		"attributes":  map[string]any{"cluster": 2},
	}
	o, err := OrderFromPayload(Bid, "2021-01-01T00:00", 3, p)
	require.NoError(t, err)
	assert.Equal(t, "b1", o.ID)
	assert.Equal(t, Bid, o.Side)
	assert.Equal(t, "H1", o.AgentID)
	assert.Equal(t, "2", o.Cluster)
	assert.Equal(t, Energy(1500), o.Energy)
	assert.Equal(t, 30.0, o.Rate)
	assert.Equal(t, 3, o.Seq)
}

func TestOrderFromPayload_OfferNumericIDAndJSONNumbers(t *testing.T) {
	p := Payload{
		"id":          json.Number("42"),
		"seller":      "PV",
		"energy":      json.Number("0.25"),
		"energy_rate": json.Number("12"),
	}
	o, err := OrderFromPayload(Offer, "s", 0, p)
	require.NoError(t, err)
	assert.Equal(t, "42", o.ID)
	assert.Equal(t, "PV", o.AgentID)
	assert.Equal(t, "", o.Cluster)
	assert.Equal(t, Energy(250), o.Energy)
}

func TestOrderFromPayload_Rejections(t *testing.T) {
	base := func() Payload {
		return Payload{"id": "x", "buyer": "a", "energy": 1.0, "energy_rate": 1.0}
	}
	cases := []struct {
		name   string
		mutate func(Payload)
		want   error
	}{
		{"missing id", func(p Payload) { delete(p, "id") }, ErrMissingField},
		{"missing buyer", func(p Payload) { delete(p, "buyer") }, ErrMissingField},
		{"zero energy", func(p Payload) { p["energy"] = 0.0 }, ErrInvalidEnergy},
		{"negative energy", func(p Payload) { p["energy"] = -2.0 }, ErrInvalidEnergy},
		{"energy below increment", func(p Payload) { p["energy"] = 0.0001 }, ErrInvalidEnergy},
		{"string energy", func(p Payload) { p["energy"] = "5" }, ErrInvalidEnergy},
		{"missing rate", func(p Payload) { delete(p, "energy_rate") }, ErrMissingField},
		{"non numeric rate", func(p Payload) { p["energy_rate"] = "cheap" }, ErrInvalidRate},
		{"negative rate", func(p Payload) { p["energy_rate"] = -1.0 }, ErrInvalidRate},
		{"bad attributes", func(p Payload) { p["attributes"] = "x" }, ErrInvalidField},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := base()
			c.mutate(p)
			_, err := OrderFromPayload(Bid, "s", 0, p)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v got %v", c.want, err)
			}
		})
	}
}

func TestToEnergy(t *testing.T) {
	assert.Equal(t, Energy(5000), ToEnergy(5))
	assert.Equal(t, Energy(1005), ToEnergy(1.005))
	assert.Equal(t, Energy(300), ToEnergy(0.3))
	assert.Equal(t, Energy(0), ToEnergy(0))
	assert.Equal(t, Energy(0), ToEnergy(math.NaN()))
	assert.Equal(t, MaxEnergy, ToEnergy(1e300))
	assert.Equal(t, MaxEnergy, ToEnergy(math.Inf(1)))
}

func TestEnergyExternal(t *testing.T) {
	assert.Equal(t, 5.0, Energy(5000).External())
	assert.Equal(t, 0.001, Energy(1).External())
	assert.Equal(t, 1.005, ToEnergy(1.005).External())
	assert.Equal(t, Energy(3), Energy(3).Min(7))
}
