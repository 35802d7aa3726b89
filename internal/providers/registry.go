package providers

import (
	"sync"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
)

// SourceResult holds the outcome of one provider search during fan-out.
type SourceResult struct {
	// Source identifies which provider produced the result.
	Source domain.SourceType

	// Result contains the search results if the search succeeded.
	Result *SearchResult

	// Error contains the error if the search failed.
	Error error
}

// Registry manages providers. Registration and retrieval are
// thread-safe; the search engine drives the concurrent fan-out over
// EnabledProviders.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.SourceType]Provider
	order     []domain.SourceType
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[domain.SourceType]Provider),
	}
}

// Register adds a provider, replacing any existing provider of the same
// type. Registration order is preserved and defines the primary →
// secondary fallback order used by the engine.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.SourceType()]; !exists {
		r.order = append(r.order, p.SourceType())
	}
	r.providers[p.SourceType()] = p
}

// Get returns a provider by type, or nil if not registered.
func (r *Registry) Get(st domain.SourceType) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[st]
}

// EnabledProviders returns the enabled providers in registration order.
// The returned slice is a snapshot.
func (r *Registry) EnabledProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, st := range r.order {
		if p := r.providers[st]; p != nil && p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}
