package scraper

import (
	"fmt"
	"sync"

	"github.com/pdxscreens/marquee/app/config"
)

// Constructor builds an adapter for one configured theater.
type Constructor func(theater config.Theater) Adapter

// Registry maps theater ids to adapter constructors. Adding a theater means
// registering its constructor at startup; orchestration code never names a
// concrete adapter.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

func (r *Registry) Register(id string, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[id] = constructor
}

func (r *Registry) Resolve(theater config.Theater) (Adapter, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[theater.ID]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %q", ErrUnknownSource, theater.ID)
	}
	return constructor(theater), nil
}
