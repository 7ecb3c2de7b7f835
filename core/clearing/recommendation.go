package clearing

import (
	"errors"
	"fmt"

	"github.com/kilianp07/gridmatch/core/model"
)

// ErrContractViolation reports a match that cannot belong to the cleared
// book. It signals a bug in a strategy, never bad input.
var ErrContractViolation = errors.New("clearing contract violation")

// BuildRecommendations maps matches to recommendation records carrying the
// original payloads. Energy is converted back to the external unit.
func BuildRecommendations(marketID, slot string, matches []Match, bids, offers []model.Order) ([]model.Recommendation, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	bidByID := index(bids)
	offerByID := index(offers)
	recs := make([]model.Recommendation, 0, len(matches))
	for i, m := range matches {
		bid, ok := bidByID[m.BidID]
		if !ok {
			return nil, fmt.Errorf("match %d: unknown bid %q: %w", i, m.BidID, ErrContractViolation)
		}
		offer, ok := offerByID[m.OfferID]
		if !ok {
			return nil, fmt.Errorf("match %d: unknown offer %q: %w", i, m.OfferID, ErrContractViolation)
		}
		if m.Energy <= 0 {
			return nil, fmt.Errorf("match %d: non-positive energy %d: %w", i, m.Energy, ErrContractViolation)
		}
		recs = append(recs, model.Recommendation{
			MarketID:       marketID,
			TimeSlot:       slot,
			Bid:            bid.Payload,
			Offer:          offer.Payload,
			SelectedEnergy: m.Energy.External(),
			TradeRate:      m.Rate,
		})
	}
	return recs, nil
}

func index(orders []model.Order) map[string]model.Order {
	m := make(map[string]model.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return m
}
