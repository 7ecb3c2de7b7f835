package clearing

import (
	"github.com/kilianp07/gridmatch/core/book"
	"github.com/kilianp07/gridmatch/core/model"
)

// PayAsClear trades every match of a slot at one uniform clearing rate.
type PayAsClear struct{}

// Name implements Strategy.
func (PayAsClear) Name() string { return PayAsClearName }

// Clear implements Strategy.
func (PayAsClear) Clear(bids, offers []model.Order) []Match {
	b := book.New(bids, offers)
	bidEntries, offerEntries := b.Bids(), b.Offers()
	c, ok := Intersect(Curve(bidEntries), Curve(offerEntries))
	if !ok {
		return nil
	}
	return allocate(bidEntries, offerEntries, c)
}

// allocate fills bids and offers in rate priority until the cleared quantity
// is exhausted. Every match carries the clearing price.
func allocate(bids, offers []*book.Entry, c Clearing) []Match {
	var matches []Match
	left := c.Quantity
	i, j := 0, 0
	for left > 0 && i < len(bids) && j < len(offers) {
		bid, offer := bids[i], offers[j]
		qty := bid.Remaining.Min(offer.Remaining).Min(left)
		bid.Remaining -= qty
		offer.Remaining -= qty
		left -= qty
		matches = append(matches, Match{
			BidID:   bid.Order.ID,
			OfferID: offer.Order.ID,
			Energy:  qty,
			Rate:    c.Price,
		})
		if bid.Remaining == 0 {
			i++
		}
		if offer.Remaining == 0 {
			j++
		}
	}
	return matches
}
