package clearing

import (
	"math"

	"github.com/kilianp07/gridmatch/core/book"
	"github.com/kilianp07/gridmatch/core/model"
	"github.com/kilianp07/gridmatch/core/topology"
)

// ClusterFair matches in rate priority but only pairs orders whose nodes may
// exchange the traded energy. A rejected pair is skipped without consuming
// energy and the scan continues with the next candidate, so the worst case
// visits every bid and offer pair.
//
// Each match is priced at the uniform clearing rate of the bid's node,
// computed over the orders placed on that node and bounded by the offer and
// bid rates. When the node market does not cross on its own the bid rate is
// used.
type ClusterFair struct {
	// Topology defaults to topology.Single when nil.
	Topology topology.Topology
}

// Name implements Strategy.
func (ClusterFair) Name() string { return ClusterFairName }

// Clear implements Strategy.
func (c ClusterFair) Clear(bids, offers []model.Order) []Match {
	topo := c.Topology
	if topo == nil {
		topo = topology.Single{}
	}
	b := book.New(bids, offers)
	bidEntries, offerEntries := b.Bids(), b.Offers()

	nodes := make(map[*book.Entry]string, len(bidEntries)+len(offerEntries))
	for _, e := range bidEntries {
		nodes[e] = topo.NodeOf(e.Order.AgentID, e.Order.Cluster)
	}
	for _, e := range offerEntries {
		nodes[e] = topo.NodeOf(e.Order.AgentID, e.Order.Cluster)
	}
	prices := nodePrices(bidEntries, offerEntries, nodes)

	var matches []Match
	for _, bid := range bidEntries {
		bidNode := nodes[bid]
		for _, offer := range offerEntries {
			if bid.Remaining == 0 {
				break
			}
			// offers are sorted by ascending rate
			if offer.Order.Rate > bid.Order.Rate {
				break
			}
			if offer.Remaining == 0 {
				continue
			}
			qty := bid.Remaining.Min(offer.Remaining)
			if !topo.CanTrade(nodes[offer], bidNode, qty) {
				continue
			}
			bid.Remaining -= qty
			offer.Remaining -= qty
			matches = append(matches, Match{
				BidID:   bid.Order.ID,
				OfferID: offer.Order.ID,
				Energy:  qty,
				Rate:    fairRate(prices, bidNode, bid.Order.Rate, offer.Order.Rate),
			})
		}
	}
	return matches
}

// nodePrices computes the local clearing price of every node whose own
// orders cross. Entries keep their rate priority inside each node.
func nodePrices(bids, offers []*book.Entry, nodes map[*book.Entry]string) map[string]float64 {
	localBids := make(map[string][]*book.Entry)
	localOffers := make(map[string][]*book.Entry)
	for _, e := range bids {
		localBids[nodes[e]] = append(localBids[nodes[e]], e)
	}
	for _, e := range offers {
		localOffers[nodes[e]] = append(localOffers[nodes[e]], e)
	}
	prices := make(map[string]float64, len(localBids))
	for node, nb := range localBids {
		if c, ok := Intersect(Curve(nb), Curve(localOffers[node])); ok {
			prices[node] = c.Price
		}
	}
	return prices
}

func fairRate(prices map[string]float64, node string, bidRate, offerRate float64) float64 {
	p, ok := prices[node]
	if !ok {
		return bidRate
	}
	return math.Min(math.Max(p, offerRate), bidRate)
}
