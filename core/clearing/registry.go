package clearing

import (
	"fmt"

	"github.com/kilianp07/gridmatch/core/factory"
	"github.com/kilianp07/gridmatch/core/topology"
)

// Aliases kept for configurations written against the historical names.
var aliases = map[string]string{
	"best_pab": PayAsBidName,
	"best_pac": PayAsClearName,
	"best":     ClusterFairName,
}

// NewRegistry returns a registry holding the built-in strategies. The
// cluster_fair factory uses topo unless its own conf describes a topology;
// a nil topo places every agent on a single node.
func NewRegistry(topo topology.Topology) *factory.Registry[Strategy] {
	reg := factory.NewRegistry[Strategy]()
	must(reg.Register(PayAsBidName, func(map[string]any) (Strategy, error) {
		return PayAsBid{}, nil
	}))
	must(reg.Register(PayAsClearName, func(map[string]any) (Strategy, error) {
		return PayAsClear{}, nil
	}))
	must(reg.Register(ClusterFairName, func(conf map[string]any) (Strategy, error) {
		if len(conf) == 0 {
			return ClusterFair{Topology: topo}, nil
		}
		var c topology.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, fmt.Errorf("cluster_fair conf: %w", err)
		}
		net, err := topology.NewNetwork(c)
		if err != nil {
			return nil, fmt.Errorf("cluster_fair topology: %w", err)
		}
		return ClusterFair{Topology: net}, nil
	}))
	for alias, name := range aliases {
		must(reg.Alias(alias, name))
	}
	return reg
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// New creates the named strategy from the default registry.
func New(name string, conf map[string]any, topo topology.Topology) (Strategy, error) {
	return NewRegistry(topo).Create(factory.ModuleConfig{Type: name, Conf: conf})
}
