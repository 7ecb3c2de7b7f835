// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[clearing.Strategy]()
//	reg.Register("cluster_fair", func(conf map[string]any) (clearing.Strategy, error) {
//	    var c topology.Config
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    net, err := topology.NewNetwork(c)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return clearing.ClusterFair{Topology: net}, nil
//	})
//	reg.Alias("best", "cluster_fair")
//	s, err := reg.Create(factory.ModuleConfig{Type: "best"})
package factory
