// Package book keeps the resting orders of one time slot on price levels.
// Bids are sorted highest rate first, offers lowest rate first, and orders on
// the same level keep their submission order.
package book

import (
	"sort"

	"github.com/tidwall/btree"

	"github.com/kilianp07/gridmatch/core/model"
)

// Entry is an order resting in the book together with its unfilled energy.
type Entry struct {
	Order     model.Order
	Remaining model.Energy
}

type level struct {
	rate    float64
	entries []*Entry
}

type levels = btree.BTreeG[*level]

// Book is a two-sided price-level book. It is not safe for concurrent use; a
// strategy owns its book for the duration of one clearing call.
type Book struct {
	bids   *levels
	offers *levels
}

// New places the given orders in a fresh book. Orders are inserted by
// submission index so each level is FIFO regardless of the slice order.
// Orders without energy are ignored.
func New(bids, offers []model.Order) *Book {
	b := &Book{
		// Sorted greatest first.
		bids: btree.NewBTreeGOptions(func(a, c *level) bool {
			return a.rate > c.rate
		}, btree.Options{NoLocks: true}),
		// Sorted least first.
		offers: btree.NewBTreeGOptions(func(a, c *level) bool {
			return a.rate < c.rate
		}, btree.Options{NoLocks: true}),
	}
	for _, o := range bySeq(bids) {
		b.place(b.bids, o)
	}
	for _, o := range bySeq(offers) {
		b.place(b.offers, o)
	}
	return b
}

func bySeq(orders []model.Order) []model.Order {
	out := append([]model.Order(nil), orders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (b *Book) place(side *levels, o model.Order) {
	if o.Energy <= 0 {
		return
	}
	// Levels comparator only looks at the rate, so a dummy level is enough
	// for the lookup.
	lvl, ok := side.GetMut(&level{rate: o.Rate})
	if !ok {
		lvl = &level{rate: o.Rate}
		side.Set(lvl)
	}
	lvl.entries = append(lvl.entries, &Entry{Order: o, Remaining: o.Energy})
}

// Bids returns the resting bids in priority order.
func (b *Book) Bids() []*Entry { return flatten(b.bids) }

// Offers returns the resting offers in priority order.
func (b *Book) Offers() []*Entry { return flatten(b.offers) }

func flatten(side *levels) []*Entry {
	var out []*Entry
	side.Scan(func(l *level) bool {
		out = append(out, l.entries...)
		return true
	})
	return out
}

// Len returns the number of resting bids and offers.
func (b *Book) Len() (bids, offers int) {
	return count(b.bids), count(b.offers)
}

func count(side *levels) int {
	n := 0
	side.Scan(func(l *level) bool {
		n += len(l.entries)
		return true
	})
	return n
}

// TradeFunc receives every crossing pair with the quantity exchanged.
type TradeFunc func(bid, offer *Entry, qty model.Energy)

// Cross consumes the top of book while the best bid rate is at least the
// best offer rate, matching in price-time priority. It stops at the first
// pair that does not cross; filled orders leave the book.
func (b *Book) Cross(trade TradeFunc) {
	for {
		bestBid, bidOk := b.bids.MinMut()
		bestOffer, offerOk := b.offers.MinMut()
		if !bidOk || !offerOk || bestBid.rate < bestOffer.rate {
			return
		}

		var oIdx, bIdx int
		for oIdx < len(bestOffer.entries) && bIdx < len(bestBid.entries) {
			offer := bestOffer.entries[oIdx]
			bid := bestBid.entries[bIdx]

			qty := bid.Remaining.Min(offer.Remaining)
			bid.Remaining -= qty
			offer.Remaining -= qty
			trade(bid, offer, qty)

			if offer.Remaining == 0 {
				oIdx++
			}
			if bid.Remaining == 0 {
				bIdx++
			}
		}

		bestOffer.entries = bestOffer.entries[oIdx:]
		bestBid.entries = bestBid.entries[bIdx:]
		if len(bestOffer.entries) == 0 {
			b.offers.Delete(bestOffer)
		}
		if len(bestBid.entries) == 0 {
			b.bids.Delete(bestBid)
		}
	}
}
