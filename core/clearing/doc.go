// Package clearing implements the double-sided auction strategies used to
// clear one (market, time slot) order book.
//
// Three strategies share the Strategy interface:
//
//   - PayAsBid matches the best bid with the best offer while they cross and
//     prices every match at the bid rate.
//   - PayAsClear intersects the cumulative demand and supply curves and prices
//     every match of the slot at one uniform clearing rate.
//   - ClusterFair walks the same rate priority but only pairs orders whose
//     grid nodes may exchange the energy according to a topology.Topology.
//
// Strategies are pure: they own the orders passed to Clear for the duration
// of the call and keep no state between calls, so a single value may be
// shared by concurrent workers. BuildRecommendations turns the resulting
// matches into the external recommendation records.
package clearing
