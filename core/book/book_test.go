package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridmatch/core/model"
)

func order(id string, side model.Side, seq int, energy model.Energy, rate float64) model.Order {
	return model.Order{ID: id, Side: side, Seq: seq, Energy: energy, Rate: rate}
}

func ids(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Order.ID
	}
	return out
}

func TestBook_Priority(t *testing.T) {
	b := New(
		[]model.Order{
			order("b3", model.Bid, 2, 1, 10),
			order("b1", model.Bid, 0, 1, 20),
			order("b2", model.Bid, 1, 1, 10),
		},
		[]model.Order{
			order("o1", model.Offer, 0, 1, 7),
			order("o2", model.Offer, 1, 1, 5),
			order("o3", model.Offer, 2, 1, 7),
		},
	)
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(b.Bids()))
	assert.Equal(t, []string{"o2", "o1", "o3"}, ids(b.Offers()))
	nb, no := b.Len()
	assert.Equal(t, 3, nb)
	assert.Equal(t, 3, no)
}

type fill struct {
	bid, offer string
	qty        model.Energy
}

func TestBook_CrossPartialFills(t *testing.T) {
	b := New(
		[]model.Order{
			order("b1", model.Bid, 0, 5, 30),
			order("b2", model.Bid, 1, 5, 25),
			order("b3", model.Bid, 2, 5, 1),
		},
		[]model.Order{
			order("o1", model.Offer, 0, 7, 20),
			order("o2", model.Offer, 1, 10, 24),
		},
	)
	var fills []fill
	b.Cross(func(bid, offer *Entry, qty model.Energy) {
		fills = append(fills, fill{bid.Order.ID, offer.Order.ID, qty})
	})
	require.Equal(t, []fill{
		{"b1", "o1", 5},
		{"b2", "o1", 2},
		{"b2", "o2", 3},
	}, fills)

	// b3 does not cross the remaining o2
	assert.Equal(t, []string{"b3"}, ids(b.Bids()))
	offers := b.Offers()
	require.Len(t, offers, 1)
	assert.Equal(t, model.Energy(7), offers[0].Remaining)
}

func TestBook_CrossEmptySide(t *testing.T) {
	b := New(nil, []model.Order{order("o1", model.Offer, 0, 1, 1)})
	b.Cross(func(*Entry, *Entry, model.Energy) {
		t.Fatal("no trade expected")
	})
	nb, no := b.Len()
	assert.Zero(t, nb)
	assert.Equal(t, 1, no)
}
