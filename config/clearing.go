package config

import (
	"fmt"

	"github.com/kilianp07/gridmatch/core/clearing"
	"github.com/kilianp07/gridmatch/core/device"
)

// ClearingConfig selects the matching strategy.
type ClearingConfig struct {
	Strategy string         `json:"strategy"`
	Conf     map[string]any `json:"conf"`
}

// SetDefaults applies sane defaults.
func (c *ClearingConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = clearing.PayAsClearName
	}
}

// Validate checks that the strategy is registered.
func (c ClearingConfig) Validate() error {
	if _, ok := clearing.NewRegistry(nil).Resolve(c.Strategy); !ok {
		return fmt.Errorf("unknown clearing strategy %s", c.Strategy)
	}
	return nil
}

// ValidationConfig enables the upstream device range checks. Kinds missing
// from Limits use the built-in limits.
type ValidationConfig struct {
	Enabled bool                          `json:"enabled"`
	Limits  map[device.Kind]device.Limits `json:"limits"`
}

// Validate checks the configured limits.
func (c ValidationConfig) Validate() error {
	for kind, l := range c.Limits {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("validation limits %s: %w", kind, err)
		}
	}
	return nil
}

// APIConfig defines the HTTP listener.
type APIConfig struct {
	Address string `json:"address"`
	// Token, when set, is required as a bearer token on every request.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}
