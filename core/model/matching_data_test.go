package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderedJSON = `{
  "market-b": {
    "2021-01-01T00:15": {"bids": [{"id": "1", "buyer": "H1", "energy": 5, "energy_rate": 30}], "offers": []},
    "2021-01-01T00:00": {"bids": [], "offers": [{"id": 7, "seller": "PV", "energy": 2.5, "energy_rate": 10}]}
  },
  "market-a": {
    "2021-01-01T00:00": {"bids": [], "offers": []}
  }
}`

func TestParseMatchingData_KeepsOrder(t *testing.T) {
	md, err := ParseMatchingData([]byte(orderedJSON))
	require.NoError(t, err)
	require.Len(t, md, 2)
	assert.Equal(t, "market-b", md[0].MarketID)
	assert.Equal(t, "market-a", md[1].MarketID)
	require.Len(t, md[0].Slots, 2)
	assert.Equal(t, "2021-01-01T00:15", md[0].Slots[0].TimeSlot)
	assert.Equal(t, "2021-01-01T00:00", md[0].Slots[1].TimeSlot)
	assert.Equal(t, 3, md.SlotCount())

	offer := md[0].Slots[1].Book.Offers[0]
	assert.Equal(t, json.Number("7"), offer["id"])
	assert.Equal(t, json.Number("2.5"), offer["energy"])
}

func TestMatchingData_JSONRoundTripOrder(t *testing.T) {
	md, err := ParseMatchingData([]byte(orderedJSON))
	require.NoError(t, err)
	out, err := json.Marshal(md)
	require.NoError(t, err)
	again, err := ParseMatchingData(out)
	require.NoError(t, err)
	assert.Equal(t, md, again)
}

func TestParseMatchingData_Malformed(t *testing.T) {
	for _, doc := range []string{`[]`, `{"m": []}`, `{"m": {"s": 3}}`} {
		if _, err := ParseMatchingData([]byte(doc)); err == nil {
			t.Fatalf("expected error for %s", doc)
		}
	}
}

func TestParseMatchingDataYAML_KeepsOrder(t *testing.T) {
	doc := `
zeta:
  "10":
    bids:
      - {id: b1, buyer: H1, energy: 1, energy_rate: 20, attributes: {cluster: 1}}
    offers: []
  "02":
    bids: []
    offers:
      - {id: o1, seller: PV, energy: 0.5, energy_rate: 5}
alpha:
  "01": {bids: [], offers: []}
`
	md, err := ParseMatchingDataYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, md, 2)
	assert.Equal(t, "zeta", md[0].MarketID)
	assert.Equal(t, "10", md[0].Slots[0].TimeSlot)
	assert.Equal(t, "02", md[0].Slots[1].TimeSlot)

	o, err := OrderFromPayload(Bid, "10", 0, md[0].Slots[0].Book.Bids[0])
	require.NoError(t, err)
	assert.Equal(t, "1", o.Cluster)
	assert.Equal(t, Energy(1000), o.Energy)
}

func TestParseMatchingDataYAML_Malformed(t *testing.T) {
	if _, err := ParseMatchingDataYAML([]byte("- a\n- b\n")); err == nil {
		t.Fatal("expected error for sequence document")
	}
}
