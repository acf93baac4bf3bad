package hello

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps sample names to factories of type F.
// Sample packages register their factories from init functions;
// the zero value is ready to use.
type Registry[F any] struct {
	mu        sync.RWMutex
	factories map[string]F
}

// Register registers a factory with the given name.
// If a factory with the same name is already registered, it is replaced.
func (r *Registry[F]) Register(name string, factory F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]F)
	}
	r.factories[name] = factory
}

// Unregister removes a factory from the registry.
// This is useful for testing.
func (r *Registry[F]) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Available returns the registered names in sorted order.
func (r *Registry[F]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a factory with the given name is registered.
func (r *Registry[F]) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Get returns the factory registered under name.
func (r *Registry[F]) Get(name string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// MustGet returns the factory registered under name or an error wrapping
// ErrUnknownSample that lists the available names.
func (r *Registry[F]) MustGet(name string) (F, error) {
	f, ok := r.Get(name)
	if !ok {
		return f, fmt.Errorf("%w %q (available: %v)", ErrUnknownSample, name, r.Available())
	}
	return f, nil
}
