package config

import (
	"fmt"
)

// LoggingConfig defines the process log output.
type LoggingConfig struct {
	// Level is a zerolog level name: debug, info, warn or error.
	Level string `json:"level"`
	// Format selects "json" lines or the human readable "console" writer.
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks the level and format names.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown log format %s", c.Format)
	}
	return nil
}
