package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
	"github.com/Diegogigi/medconnect-evidence/internal/observability"
	"github.com/Diegogigi/medconnect-evidence/internal/providers"
	"github.com/Diegogigi/medconnect-evidence/internal/query"
)

// stubProvider is a scripted Provider for engine tests.
type stubProvider struct {
	mu      sync.Mutex
	source  domain.SourceType
	records []domain.EvidenceRecord
	err     error
	calls   int
}

var _ providers.Provider = (*stubProvider)(nil)

func (s *stubProvider) Search(_ context.Context, _ domain.Query) (*providers.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &providers.SearchResult{
		Records:        append([]domain.EvidenceRecord(nil), s.records...),
		Source:         s.source,
		SearchDuration: time.Millisecond,
	}, nil
}

func (s *stubProvider) SourceType() domain.SourceType { return s.source }
func (s *stubProvider) Name() string                  { return string(s.source) }
func (s *stubProvider) IsEnabled() bool               { return true }

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestEngine(t *testing.T, cfg EngineConfig, provs ...providers.Provider) *Engine {
	t.Helper()
	registry := providers.NewRegistry()
	for _, p := range provs {
		registry.Register(p)
	}
	metrics := observability.NewMetricsWith(prometheus.NewRegistry(), "test")
	scorer := NewScorer(DefaultScoreWeights(), DefaultTerms())
	cache := NewCache(time.Minute, 10)
	return NewEngine(registry, cache, scorer, cfg, zerolog.Nop(), metrics)
}

func engineQuery() domain.Query {
	return domain.NewQuery("dolor lumbar", "physical therapy", nil, "low back pain")
}

func engineTermSet() query.TermSet {
	return query.TermSet{ConditionKeywords: []string{"low back pain"}}
}

func TestEngineSearchRanksByScore(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, records: []domain.EvidenceRecord{
		{Title: "Low back pain outcomes", Year: "N/A", DOI: domain.NoDOI},
		{Title: "Exercise therapy for low back pain", Year: "2023", DOI: "10.1000/a"},
	}}

	engine := newTestEngine(t, DefaultEngineConfig(), pm)
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())

	require.Len(t, got, 2)
	assert.Equal(t, "Exercise therapy for low back pain", got[0].Title)
	assert.Greater(t, got[0].RelevanceScore, got[1].RelevanceScore)
}

func TestEngineSearchTieBreakKeepsPrimaryFirst(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, records: []domain.EvidenceRecord{
		{Title: "Low back pain outcomes alpha", Year: "N/A", DOI: domain.NoDOI},
	}}
	ep := &stubProvider{source: domain.SourceTypeEuropePMC, records: []domain.EvidenceRecord{
		{Title: "Low back pain outcomes beta", Year: "N/A", DOI: domain.NoDOI},
	}}

	engine := newTestEngine(t, DefaultEngineConfig(), pm, ep)
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())

	require.Len(t, got, 2)
	assert.Equal(t, got[0].RelevanceScore, got[1].RelevanceScore)
	// Equal scores keep merge order: the primary provider's record first.
	assert.Equal(t, domain.SourceTypePubMed, got[0].Source)
	assert.Equal(t, domain.SourceTypeEuropePMC, got[1].Source)
}

func TestEngineSearchDeduplicatesAcrossProviders(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, records: []domain.EvidenceRecord{
		{Title: "Exercise therapy for low back pain", Year: "2023", DOI: "10.1000/shared", Source: domain.SourceTypePubMed},
	}}
	ep := &stubProvider{source: domain.SourceTypeEuropePMC, records: []domain.EvidenceRecord{
		{Title: "Exercise therapy for low back pain [EPMC]", Year: "2023", DOI: "https://doi.org/10.1000/SHARED", Source: domain.SourceTypeEuropePMC},
	}}

	engine := newTestEngine(t, DefaultEngineConfig(), pm, ep)
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())

	require.Len(t, got, 1)
	assert.Equal(t, domain.SourceTypePubMed, got[0].Source)
}

func TestEngineSearchBoundedByTopK(t *testing.T) {
	var records []domain.EvidenceRecord
	for i := 0; i < 15; i++ {
		records = append(records, domain.EvidenceRecord{
			Title: "Low back pain outcomes variant " + string(rune('a'+i)),
			Year:  "2023",
			DOI:   domain.NoDOI,
		})
	}
	pm := &stubProvider{source: domain.SourceTypePubMed, records: records}

	cfg := DefaultEngineConfig()
	cfg.TopK = 3
	engine := newTestEngine(t, cfg, pm)

	got := engine.Search(context.Background(), engineQuery(), engineTermSet())
	assert.Len(t, got, 3)
}

func TestEngineSearchRelaxesThreshold(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, records: []domain.EvidenceRecord{
		// 15 condition - 10 review + 5 DOI = 10: below strict, above relaxed.
		{Title: "Low back pain review", Year: "N/A", DOI: "10.1000/weak"},
		// Scores zero: dropped even by the relaxed threshold.
		{Title: "An editorial letter", Year: "N/A", DOI: domain.NoDOI},
	}}

	engine := newTestEngine(t, DefaultEngineConfig(), pm)
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())

	require.Len(t, got, 1)
	assert.Equal(t, "Low back pain review", got[0].Title)
	assert.Equal(t, 10.0, got[0].RelevanceScore)
}

func TestEngineSearchTotalOutageYieldsEmptyResult(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, err: domain.NewExternalAPIError(domain.SourceTypePubMed, 503, "down", nil)}
	ep := &stubProvider{source: domain.SourceTypeEuropePMC, err: domain.NewExternalAPIError(domain.SourceTypeEuropePMC, 503, "down", nil)}

	engine := newTestEngine(t, DefaultEngineConfig(), pm, ep)
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())

	// No evidence is a normal outcome, not an error.
	assert.Empty(t, got)
	// Each provider gets the concurrent attempt plus fallback retries
	// until it crosses the default threshold of three failures.
	assert.Equal(t, 3, pm.callCount())
	assert.Equal(t, 3, ep.callCount())
}

func TestEngineSearchFailureThresholdBoundsAttempts(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, err: domain.NewExternalAPIError(domain.SourceTypePubMed, 500, "boom", nil)}

	engine := newTestEngine(t, DefaultEngineConfig(), pm)
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())

	assert.Empty(t, got)
	// The breaker trips at the configured threshold: no aggregation may
	// hit a failing provider more often than that.
	assert.Equal(t, DefaultEngineConfig().FailureThreshold, pm.callCount())
}

func TestEngineSearchFallbackToSecondary(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, err: domain.NewExternalAPIError(domain.SourceTypePubMed, 500, "boom", nil)}
	ep := &stubProvider{source: domain.SourceTypeEuropePMC, records: []domain.EvidenceRecord{
		{Title: "Low back pain outcomes", Year: "2022", DOI: "10.1000/b", Source: domain.SourceTypeEuropePMC},
	}}

	engine := newTestEngine(t, DefaultEngineConfig(), pm, ep)
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())

	require.Len(t, got, 1)
	assert.Equal(t, domain.SourceTypeEuropePMC, got[0].Source)
	// The secondary already delivered: no retry pass.
	assert.Equal(t, 1, pm.callCount())
	assert.Equal(t, 1, ep.callCount())
}

func TestEngineSearchDegradedProviderSkipped(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, err: domain.NewExternalAPIError(domain.SourceTypePubMed, 500, "boom", nil)}

	cfg := DefaultEngineConfig()
	cfg.FailureThreshold = 1
	engine := newTestEngine(t, cfg, pm)

	got := engine.Search(context.Background(), engineQuery(), engineTermSet())
	assert.Empty(t, got)
	// Degraded after the first failure: the fallback pass skips it.
	assert.Equal(t, 1, pm.callCount())
}

func TestEngineSearchUsesCache(t *testing.T) {
	pm := &stubProvider{source: domain.SourceTypePubMed, records: []domain.EvidenceRecord{
		{Title: "Low back pain outcomes", Year: "2023", DOI: "10.1000/c"},
	}}

	engine := newTestEngine(t, DefaultEngineConfig(), pm)
	q := engineQuery()
	ts := engineTermSet()

	first := engine.Search(context.Background(), q, ts)
	second := engine.Search(context.Background(), q, ts)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, pm.callCount(), "second query must be served from cache")
}

func TestEngineSearchLowBackPainScenario(t *testing.T) {
	rct := domain.EvidenceRecord{
		Title:  "Physical Therapy for Low Back Pain: RCT",
		DOI:    "10.1001/x",
		Year:   "2023",
		Source: domain.SourceTypePubMed,
	}
	duplicate := rct
	duplicate.Title = "Physical therapy for low back pain, a randomized trial"

	pm := &stubProvider{source: domain.SourceTypePubMed, records: []domain.EvidenceRecord{rct, duplicate}}
	ep := &stubProvider{source: domain.SourceTypeEuropePMC, records: []domain.EvidenceRecord{
		{Title: "A broad review of recent therapies", Year: "2020", DOI: domain.NoDOI, Source: domain.SourceTypeEuropePMC},
	}}

	engine := newTestEngine(t, DefaultEngineConfig(), pm, ep)
	q := domain.NewQuery("low back pain", "physical therapy", nil, "low back pain")
	got := engine.Search(context.Background(), q, query.TermSet{})

	// The DOI duplicate collapses and the unrelated review falls below
	// the inclusion threshold: exactly the RCT survives.
	require.Len(t, got, 1)
	assert.Equal(t, "Physical Therapy for Low Back Pain: RCT", got[0].Title)
	assert.Greater(t, got[0].RelevanceScore, 15.0)
}

func TestEngineSearchNoProviders(t *testing.T) {
	engine := newTestEngine(t, DefaultEngineConfig())
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())
	assert.Empty(t, got)
}

func TestEngineSearchQueryTimeout(t *testing.T) {
	slow := &slowProvider{delay: 200 * time.Millisecond}

	cfg := DefaultEngineConfig()
	cfg.QueryTimeout = 20 * time.Millisecond
	engine := newTestEngine(t, cfg, slow)

	start := time.Now()
	got := engine.Search(context.Background(), engineQuery(), engineTermSet())
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

// slowProvider blocks until its delay elapses or the context expires.
type slowProvider struct {
	delay time.Duration
}

var _ providers.Provider = (*slowProvider)(nil)

func (s *slowProvider) Search(ctx context.Context, _ domain.Query) (*providers.SearchResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
		return &providers.SearchResult{Source: domain.SourceTypePubMed}, nil
	}
}

func (s *slowProvider) SourceType() domain.SourceType { return domain.SourceTypePubMed }
func (s *slowProvider) Name() string                  { return "slow" }
func (s *slowProvider) IsEnabled() bool               { return true }
