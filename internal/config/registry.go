package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/suryalive/suryalive/pkg/provider/live"
	"github.com/suryalive/suryalive/pkg/provider/reading"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	live    map[string]func(ProviderEntry) (live.Provider, error)
	reading map[string]func(ProviderEntry) (reading.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		live:    make(map[string]func(ProviderEntry) (live.Provider, error)),
		reading: make(map[string]func(ProviderEntry) (reading.Provider, error)),
	}
}

// RegisterLive registers a live session provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLive(name string, factory func(ProviderEntry) (live.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[name] = factory
}

// RegisterReading registers a reading provider factory under name.
func (r *Registry) RegisterReading(name string, factory func(ProviderEntry) (reading.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reading[name] = factory
}

// CreateLive instantiates a live provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateLive(entry ProviderEntry) (live.Provider, error) {
	r.mu.RLock()
	factory, ok := r.live[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: live/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateReading instantiates a reading provider using the factory registered under entry.Name.
func (r *Registry) CreateReading(entry ProviderEntry) (reading.Provider, error) {
	r.mu.RLock()
	factory, ok := r.reading[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: reading/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
