package store

import "fmt"

// Backend names accepted in configuration.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendJSONL    = "jsonl"
	BackendRotating = "rotating"
	BackendSQLite   = "sqlite"
)

// Config selects and configures the clearing log backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// Validate checks the backend name and required path.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendMemory:
		return nil
	case BackendJSONL, BackendRotating, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("store backend %s requires a path", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
}

// New opens the configured backend.
func New(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendNone:
		s = NopStore{}
	case BackendJSONL:
		s, err = NewJSONLStore(cfg.Path)
	case BackendRotating:
		s, err = NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		s, err = NewSQLiteStore(cfg.Path)
	default:
		s = NewMemoryStore()
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
