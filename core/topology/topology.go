package topology

import "github.com/kilianp07/gridmatch/core/model"

// DefaultNode is the node used for agents without any assignment.
const DefaultNode = "0"

// Topology places trading agents on grid nodes and decides whether two nodes
// may exchange a given quantity of energy. Implementations must be safe for
// concurrent reads.
type Topology interface {
	// NodeOf resolves the node of an agent. The cluster tag of the order is
	// used when the agent has no explicit assignment.
	NodeOf(agentID, cluster string) string
	// CanTrade reports whether energy may flow between the two nodes.
	CanTrade(from, to string, energy model.Energy) bool
}

// Single places every agent on one node, so all pairs are compatible.
type Single struct{}

func (Single) NodeOf(string, string) string               { return DefaultNode }
func (Single) CanTrade(string, string, model.Energy) bool { return true }
