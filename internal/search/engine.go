package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
	"github.com/Diegogigi/medconnect-evidence/internal/observability"
	"github.com/Diegogigi/medconnect-evidence/internal/providers"
	"github.com/Diegogigi/medconnect-evidence/internal/query"
)

// EngineConfig holds the orchestration parameters of the search engine.
type EngineConfig struct {
	// TopK bounds the final result list.
	TopK int `mapstructure:"top_k"`

	// QueryTimeout bounds the whole aggregation. On expiry the engine
	// returns whatever provider results completed and treats the rest
	// as failed.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`

	// FailureThreshold is the number of consecutive failures after
	// which a provider is skipped for the remainder of the aggregation.
	// The concurrent attempt and the fallback retries both count toward
	// it, so the threshold bounds how often one aggregation can hit a
	// failing provider.
	FailureThreshold int `mapstructure:"failure_threshold"`
}

// DefaultEngineConfig returns the production orchestration parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TopK:             10,
		QueryTimeout:     12 * time.Second,
		FailureThreshold: 3,
	}
}

// Engine is the fallback orchestrator: it consults the cache, fans out
// to providers under their rate limiters, degrades providers that fail
// repeatedly, merges partial results, and runs the dedup → score →
// filter → truncate pipeline. One Engine is constructed per application
// lifetime and owns its cache; it is safe for concurrent use.
//
// Total provider failure yields an explicit empty result, never an
// error: "no evidence available" is a normal outcome for the caller.
type Engine struct {
	registry *providers.Registry
	cache    *Cache
	dedup    *Deduplicator
	scorer   *Scorer
	cfg      EngineConfig
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewEngine creates an Engine.
func NewEngine(
	registry *providers.Registry,
	cache *Cache,
	scorer *Scorer,
	cfg EngineConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultEngineConfig().TopK
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultEngineConfig().QueryTimeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultEngineConfig().FailureThreshold
	}
	return &Engine{
		registry: registry,
		cache:    cache,
		dedup:    NewDeduplicator(),
		scorer:   scorer,
		cfg:      cfg,
		logger:   logger.With().Str("component", "search-engine").Logger(),
		metrics:  metrics,
	}
}

// aggregationState tracks per-provider consecutive failures within one
// aggregation call. It is not persisted across queries.
type aggregationState struct {
	mu        sync.Mutex
	failures  map[domain.SourceType]int
	threshold int
}

func newAggregationState(threshold int) *aggregationState {
	return &aggregationState{
		failures:  make(map[domain.SourceType]int),
		threshold: threshold,
	}
}

func (s *aggregationState) recordFailure(st domain.SourceType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[st]++
}

func (s *aggregationState) recordSuccess(st domain.SourceType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[st] = 0
}

func (s *aggregationState) degraded(st domain.SourceType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[st] >= s.threshold
}

// Search runs the full retrieval pipeline for a query and its
// extractor-supplied term set, returning at most TopK records sorted by
// relevance score descending. Ties preserve provider-arrival order
// (PubMed before Europe PMC, per registration order).
func (e *Engine) Search(ctx context.Context, q domain.Query, ts query.TermSet) []domain.EvidenceRecord {
	start := time.Now()
	e.metrics.QueriesTotal.Inc()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()

	logger := observability.WithSearchContext(e.logger, q.Term(), q.Specialty)

	raw := e.aggregate(ctx, q, logger)

	deduped := e.dedup.Dedupe(raw)
	if dropped := len(raw) - len(deduped); dropped > 0 {
		e.metrics.DuplicatesDropped.Add(float64(dropped))
		logger.Debug().Int("dropped", dropped).Msg("duplicates removed")
	}

	for i := range deduped {
		deduped[i].RelevanceScore = e.scorer.Score(deduped[i], q, ts)
	}

	// Stable sort keeps provider-arrival order for equal scores.
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	final := e.applyThreshold(deduped)
	if len(final) > e.cfg.TopK {
		final = final[:e.cfg.TopK]
	}

	e.metrics.RecordsReturned.Observe(float64(len(final)))
	e.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if len(final) == 0 {
		e.metrics.QueriesEmpty.Inc()
		logger.Info().Dur("elapsed", time.Since(start)).Msg("no evidence found")
	} else {
		logger.Info().
			Int("records", len(final)).
			Dur("elapsed", time.Since(start)).
			Msg("evidence search completed")
	}

	return final
}

// aggregate fans out to all enabled providers concurrently, consulting
// the cache before any network call. Partial success is success; the
// merge keeps registration order so the primary provider's records come
// first.
func (e *Engine) aggregate(ctx context.Context, q domain.Query, logger zerolog.Logger) []domain.EvidenceRecord {
	enabled := e.registry.EnabledProviders()
	if len(enabled) == 0 {
		return nil
	}

	state := newAggregationState(e.cfg.FailureThreshold)
	results := make([][]domain.EvidenceRecord, len(enabled))
	errs := make([]error, len(enabled))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range enabled {
		g.Go(func() error {
			records, err := e.searchProvider(gctx, p, q, state, logger)
			results[i] = records
			errs[i] = err
			// Provider failures are contained here; an error would
			// cancel the sibling searches.
			return nil
		})
	}
	_ = g.Wait()

	// Fallback pass: when nothing was obtained, retry the failed
	// providers sequentially in registration order. Each provider is
	// retried until it delivers, answers with a clean empty result, or
	// crosses the failure threshold and degrades.
	if mergedCount(results) == 0 {
		for i, p := range enabled {
			if errs[i] == nil {
				continue
			}
			records, ok := e.retryProvider(ctx, p, q, state, logger)
			if ok {
				results[i] = records
				break
			}
		}
	}

	var merged []domain.EvidenceRecord
	for _, records := range results {
		merged = append(merged, records...)
	}
	return merged
}

// retryProvider drives the fallback retries for one failed provider.
// It reports records and true when the provider delivers, or nil and
// false once the provider answers empty, degrades, or the query context
// expires. With the default threshold of 3 a provider that failed the
// concurrent attempt gets two more tries here before it degrades.
func (e *Engine) retryProvider(
	ctx context.Context,
	p providers.Provider,
	q domain.Query,
	state *aggregationState,
	logger zerolog.Logger,
) ([]domain.EvidenceRecord, bool) {
	for ctx.Err() == nil && !state.degraded(p.SourceType()) {
		records, err := e.searchProvider(ctx, p, q, state, logger)
		if err != nil {
			continue
		}
		return records, len(records) > 0
	}
	return nil, false
}

// searchProvider performs one cached, failure-tracked provider search.
// Cache entries are keyed per provider and term; a hit skips the
// network entirely.
func (e *Engine) searchProvider(
	ctx context.Context,
	p providers.Provider,
	q domain.Query,
	state *aggregationState,
	logger zerolog.Logger,
) ([]domain.EvidenceRecord, error) {
	source := p.SourceType()

	if state.degraded(source) {
		e.metrics.ProvidersDegraded.WithLabelValues(string(source)).Inc()
		logger.Warn().Str("source", string(source)).Msg("provider degraded, skipping")
		return nil, domain.ErrProviderDegraded
	}

	key := CacheKey(string(source), q.Term())
	if cached, hit := e.cache.Get(key); hit {
		e.metrics.CacheHits.Inc()
		logger.Debug().Str("source", string(source)).Msg("cache hit")
		return cached, nil
	}
	e.metrics.CacheMisses.Inc()

	e.metrics.SearchesStarted.WithLabelValues(string(source)).Inc()
	result, err := p.Search(ctx, q)
	if err != nil {
		state.recordFailure(source)
		e.metrics.SearchesFailed.WithLabelValues(string(source)).Inc()
		logger.Warn().Err(err).Str("source", string(source)).Msg("provider search failed")
		return nil, err
	}

	state.recordSuccess(source)
	e.metrics.SearchesCompleted.WithLabelValues(string(source)).Inc()
	e.metrics.SearchDuration.WithLabelValues(string(source)).Observe(result.SearchDuration.Seconds())

	e.cache.Put(key, result.Records)
	return result.Records, nil
}

// applyThreshold filters records below the minimum score, relaxing the
// threshold when the strict cut leaves fewer than TopK records.
func (e *Engine) applyThreshold(records []domain.EvidenceRecord) []domain.EvidenceRecord {
	weights := e.scorer.Weights()

	strict := filterByScore(records, weights.MinScore)
	if len(strict) >= e.cfg.TopK {
		return strict
	}
	return filterByScore(records, weights.RelaxedMinScore)
}

func filterByScore(records []domain.EvidenceRecord, min float64) []domain.EvidenceRecord {
	out := make([]domain.EvidenceRecord, 0, len(records))
	for _, rec := range records {
		if rec.RelevanceScore >= min {
			out = append(out, rec)
		}
	}
	return out
}

func mergedCount(results [][]domain.EvidenceRecord) int {
	n := 0
	for _, r := range results {
		n += len(r)
	}
	return n
}
