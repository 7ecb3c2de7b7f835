package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ModuleConfig contains the type name and raw configuration for a module.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory constructs an implementation of T using the provided raw config.
type Factory[T any] func(map[string]any) (T, error)

// Registry stores factories keyed by module type. Aliases resolve to a
// registered type name.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
	aliases   map[string]string
}

// NewRegistry returns an empty factory registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
		aliases:   make(map[string]string),
	}
}

// Register adds a factory for the given type name.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	if f == nil {
		return fmt.Errorf("factory nil for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("factory already registered for %s", name)
	}
	if _, ok := r.aliases[name]; ok {
		return fmt.Errorf("%s is already an alias", name)
	}
	r.factories[name] = f
	return nil
}

// Alias makes alias resolve to the already registered type name.
func (r *Registry[T]) Alias(alias, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; !ok {
		return fmt.Errorf("unknown module type %s", name)
	}
	if _, ok := r.factories[alias]; ok {
		return fmt.Errorf("factory already registered for %s", alias)
	}
	r.aliases[alias] = name
	return nil
}

// Resolve returns the canonical type name for name or alias.
func (r *Registry[T]) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	_, ok := r.factories[name]
	return name, ok
}

// Names lists the registered type names, aliases excluded.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Create instantiates a module based on its configuration.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	name, ok := r.Resolve(cfg.Type)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown module type %s", cfg.Type)
	}
	r.mu.RLock()
	f := r.factories[name]
	r.mu.RUnlock()
	return f(cfg.Conf)
}

// Decode fills out the provided struct using json tags.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
