package batch

import "fmt"

// MaxWorkers bounds the configured worker count.
const MaxWorkers = 1024

// Config defines runner settings.
type Config struct {
	// Workers is the number of slots cleared concurrently. Zero or one
	// clears sequentially.
	Workers int `json:"workers"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// Validate checks the worker count.
func (c Config) Validate() error {
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("batch workers must be in [0, %d], got %d", MaxWorkers, c.Workers)
	}
	return nil
}
