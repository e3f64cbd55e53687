package source

import (
	"fmt"
	"sort"
)

// Registry holds the enabled site adapters. Adapter construction is driven
// by configuration so a misbehaving site can be switched off without a
// deploy of code changes.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its own name. Registering the same name
// twice is a programming error.
func (r *Registry) Register(a Adapter) error {
	name := a.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("source already registered: %s", name)
	}
	r.adapters[name] = a
	return nil
}

// Get returns the adapter for a site name, or nil if the site is not
// enabled.
func (r *Registry) Get(name string) Adapter {
	return r.adapters[name]
}

// Names returns the enabled site names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the enabled adapters in stable name order.
func (r *Registry) All() []Adapter {
	adapters := make([]Adapter, 0, len(r.adapters))
	for _, name := range r.Names() {
		adapters = append(adapters, r.adapters[name])
	}
	return adapters
}
