package clearing

import (
	"github.com/kilianp07/gridmatch/core/model"
)

type orderSpec struct {
	id      string
	agent   string
	cluster string
	energy  float64
	rate    float64
}

func makeOrders(side model.Side, specs ...orderSpec) []model.Order {
	out := make([]model.Order, len(specs))
	for i, s := range specs {
		agent := s.agent
		if agent == "" {
			agent = side.String() + "-" + s.id
		}
		out[i] = model.Order{
			ID:       s.id,
			Side:     side,
			TimeSlot: "2021-01-01T00:00",
			AgentID:  agent,
			Cluster:  s.cluster,
			Energy:   model.ToEnergy(s.energy),
			Rate:     s.rate,
			Seq:      i,
			Payload:  model.Payload{"id": s.id, "energy": s.energy, "energy_rate": s.rate},
		}
	}
	return out
}

func bidsOf(specs ...orderSpec) []model.Order   { return makeOrders(model.Bid, specs...) }
func offersOf(specs ...orderSpec) []model.Order { return makeOrders(model.Offer, specs...) }

// filled sums the matched energy per order id.
func filled(matches []Match) (bids, offers map[string]model.Energy) {
	bids = map[string]model.Energy{}
	offers = map[string]model.Energy{}
	for _, m := range matches {
		bids[m.BidID] += m.Energy
		offers[m.OfferID] += m.Energy
	}
	return bids, offers
}
