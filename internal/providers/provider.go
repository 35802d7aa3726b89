// Package providers defines the adapter boundary between the evidence
// engine and external bibliographic APIs. Each source (PubMed, Europe
// PMC) implements the Provider interface and normalizes its wire format
// into domain.EvidenceRecord, so the engine can fan out to all sources
// with a unified contract.
package providers

import (
	"context"
	"time"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
)

// SearchResult contains the normalized results of one provider search.
type SearchResult struct {
	// Records are the normalized evidence records. May be empty when
	// nothing matched; an empty list is a normal outcome, not an error.
	Records []domain.EvidenceRecord

	// Source identifies which provider produced these records.
	Source domain.SourceType

	// SearchDuration is the wall time of the search, including network
	// latency and response parsing.
	SearchDuration time.Duration
}

// Provider is implemented once per external bibliographic source.
//
// Failure semantics: network errors, non-200 statuses, and malformed
// JSON bodies surface as errors from Search; the orchestrator decides
// whether to skip, fall back, or degrade the provider. A well-formed
// response with zero candidates is a success with an empty Records list.
type Provider interface {
	// Search queries the source for records matching the query,
	// applying the provider's coarse relevance pre-filter before
	// returning. Implementations honor context cancellation and apply
	// their own rate limiting.
	Search(ctx context.Context, q domain.Query) (*SearchResult, error)

	// SourceType returns the type identifier for this provider.
	SourceType() domain.SourceType

	// Name returns a human-readable name for logging and metrics.
	Name() string

	// IsEnabled returns whether this provider is configured on.
	IsEnabled() bool
}
