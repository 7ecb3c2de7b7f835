package clearing

import (
	"github.com/kilianp07/gridmatch/core/book"
	"github.com/kilianp07/gridmatch/core/model"
)

// PayAsBid trades every crossing pair at the rate of the bid.
type PayAsBid struct{}

// Name implements Strategy.
func (PayAsBid) Name() string { return PayAsBidName }

// Clear implements Strategy.
func (PayAsBid) Clear(bids, offers []model.Order) []Match {
	var matches []Match
	book.New(bids, offers).Cross(func(bid, offer *book.Entry, qty model.Energy) {
		matches = append(matches, Match{
			BidID:   bid.Order.ID,
			OfferID: offer.Order.ID,
			Energy:  qty,
			Rate:    bid.Order.Rate,
		})
	})
	return matches
}
