// Package provider hosts the Provider Adapter Registry (spec §4.2): a
// read-only-after-construction lookup from provider name to
// model.Client, owned per-Runner and shared (read-only) across the
// concurrent runs that Runner instance drives (spec §5).
package provider

import (
	"fmt"
	"sync"

	"github.com/nexous-ai/nexous/internal/model"
)

// Registry is a closed, three-variant lookup of provider adapters.
// Construction happens once; Get is safe for concurrent readers.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]model.Client
}

// NewRegistry builds a Registry from the supplied adapters, keyed by
// each adapter's ProviderName(). Passing a nil adapter for a provider
// the project never references is fine; Get will report it missing
// only if something actually tries to route to it.
func NewRegistry(adapters ...model.Client) *Registry {
	r := &Registry{adapters: make(map[string]model.Client, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		r.adapters[a.ProviderName()] = a
	}
	return r
}

// Get resolves a provider name to its adapter.
func (r *Registry) Get(providerName string) (model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.adapters[providerName]
	if !ok {
		return nil, fmt.Errorf("provider: no adapter registered for %q", providerName)
	}
	return c, nil
}

// Names returns the registered provider names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
