package topology

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kilianp07/gridmatch/core/model"
)

// Network is a Topology backed by an undirected graph of grid nodes whose
// edge weights are link capacities. All lookups are precomputed in
// NewNetwork, so a Network is read-only and safe to share between workers.
type Network struct {
	policy      Policy
	defaultNode string
	agents      map[string]string
	tagNodes    bool
	ids         map[string]int64
	component   map[int64]int
	// widest holds the bottleneck capacity of the best path between nodes.
	widest map[int64]map[int64]model.Energy
}

// NewNetwork builds the graph described by cfg.
func NewNetwork(cfg Config) (*Network, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := simple.NewWeightedUndirectedGraph(0, 0)
	ids := make(map[string]int64)
	add := func(name string) int64 {
		if id, ok := ids[name]; ok {
			return id
		}
		n := g.NewNode()
		g.AddNode(n)
		ids[name] = n.ID()
		return n.ID()
	}
	add(cfg.DefaultNode)
	for _, name := range cfg.Nodes {
		add(name)
	}
	agents := make(map[string]string, len(cfg.Agents))
	for agent, node := range cfg.Agents {
		add(node)
		agents[agent] = node
	}
	for _, l := range cfg.Links {
		u, v := add(l.From), add(l.To)
		// parallel links collapse to the strongest one
		if e := g.WeightedEdge(u, v); e != nil && e.Weight() >= l.CapacityKWh {
			continue
		}
		g.SetWeightedEdge(g.NewWeightedEdge(g.Node(u), g.Node(v), l.CapacityKWh))
	}

	n := &Network{
		policy:      cfg.Policy,
		defaultNode: cfg.DefaultNode,
		agents:      agents,
		tagNodes:    cfg.TagNodes,
		ids:         ids,
		component:   make(map[int64]int, len(ids)),
	}
	for i, cc := range topo.ConnectedComponents(g) {
		for _, node := range cc {
			n.component[node.ID()] = i
		}
	}
	if cfg.Policy == PolicyCapacity {
		n.widest = make(map[int64]map[int64]model.Energy, len(ids))
		for _, id := range ids {
			n.widest[id] = widestFrom(g, id)
		}
	}
	return n, nil
}

// NodeOf implements Topology. Explicit agent assignments win over the order's
// cluster tag. Agents with neither, or with a tag naming no configured node,
// resolve to the default node unless TagNodes is set.
func (n *Network) NodeOf(agentID, cluster string) string {
	if node, ok := n.agents[agentID]; ok {
		return node
	}
	if cluster == "" {
		return n.defaultNode
	}
	if _, ok := n.ids[cluster]; ok || n.tagNodes {
		return cluster
	}
	return n.defaultNode
}

// CanTrade implements Topology. Nodes unknown to the graph are isolated.
func (n *Network) CanTrade(from, to string, energy model.Energy) bool {
	if from == to {
		return true
	}
	if n.policy == PolicySameNode {
		return false
	}
	u, ok := n.ids[from]
	if !ok {
		return false
	}
	v, ok := n.ids[to]
	if !ok {
		return false
	}
	if n.component[u] != n.component[v] {
		return false
	}
	if n.policy == PolicyReachable {
		return true
	}
	return n.widest[u][v] >= energy
}

// widestFrom computes maximin path capacities from src to every reachable node.
func widestFrom(g *simple.WeightedUndirectedGraph, src int64) map[int64]model.Energy {
	best := map[int64]float64{src: math.Inf(1)}
	done := make(map[int64]bool)
	for {
		var u int64
		bu := -1.0
		for id, w := range best {
			if !done[id] && w > bu {
				u, bu = id, w
			}
		}
		if bu < 0 {
			break
		}
		done[u] = true
		for it := g.From(u); it.Next(); {
			v := it.Node().ID()
			w := math.Min(bu, g.WeightedEdge(u, v).Weight())
			if cur, ok := best[v]; !ok || w > cur {
				best[v] = w
			}
		}
	}
	out := make(map[int64]model.Energy, len(best))
	for id, w := range best {
		if id == src {
			out[id] = model.MaxEnergy
			continue
		}
		out[id] = model.ToEnergy(w)
	}
	return out
}
