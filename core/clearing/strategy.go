package clearing

import (
	"github.com/kilianp07/gridmatch/core/model"
)

// Strategy names accepted in configuration.
const (
	PayAsBidName    = "pay_as_bid"
	PayAsClearName  = "pay_as_clear"
	ClusterFairName = "cluster_fair"
)

// Match pairs one bid with one offer of the same slot.
type Match struct {
	BidID   string
	OfferID string
	// Energy is expressed in the internal unit.
	Energy model.Energy
	Rate   float64
}

// Strategy clears the order book of a single time slot.
type Strategy interface {
	Name() string
	// Clear returns the matches for the given orders in the order they were
	// produced. The orders must all belong to the same slot.
	Clear(bids, offers []model.Order) []Match
}
