package topology

import (
	"fmt"
	"math"
)

// Policy selects the feasibility rule applied between two distinct nodes.
type Policy string

const (
	// PolicySameNode only allows trades inside a node.
	PolicySameNode Policy = "same_node"
	// PolicyReachable allows trades between connected nodes.
	PolicyReachable Policy = "reachable"
	// PolicyCapacity allows trades along a path whose weakest link can carry
	// the traded energy.
	PolicyCapacity Policy = "capacity"
)

// Link connects two nodes with a transfer capacity in the external energy unit.
type Link struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	CapacityKWh float64 `json:"capacity_kwh"`
}

// Config describes the grid used by cluster-aware matching.
type Config struct {
	Policy      Policy            `json:"policy"`
	DefaultNode string            `json:"default_node"`
	Nodes       []string          `json:"nodes"`
	Links       []Link            `json:"links"`
	Agents      map[string]string `json:"agents"`
	// TagNodes makes a cluster tag naming no configured node its own
	// isolated node. Off, such tags resolve to the default node.
	TagNodes bool `json:"tag_nodes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Policy == "" {
		c.Policy = PolicySameNode
	}
	if c.DefaultNode == "" {
		c.DefaultNode = DefaultNode
	}
}

// Validate checks the policy and link definitions.
func (c Config) Validate() error {
	switch c.Policy {
	case PolicySameNode, PolicyReachable, PolicyCapacity:
	default:
		return fmt.Errorf("unknown topology policy %s", c.Policy)
	}
	for _, l := range c.Links {
		if l.From == "" || l.To == "" {
			return fmt.Errorf("link endpoints are required")
		}
		if l.From == l.To {
			return fmt.Errorf("link %s loops on itself", l.From)
		}
		if math.IsNaN(l.CapacityKWh) || l.CapacityKWh < 0 {
			return fmt.Errorf("link %s-%s has invalid capacity", l.From, l.To)
		}
	}
	return nil
}
