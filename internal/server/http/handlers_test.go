package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"github.com/Diegogigi/medconnect-evidence/internal/search"
)

// stubProvider returns a fixed record set for handler tests.
type stubProvider struct {
	records []domain.EvidenceRecord
}

var _ providers.Provider = (*stubProvider)(nil)

func (s *stubProvider) Search(_ context.Context, _ domain.Query) (*providers.SearchResult, error) {
	return &providers.SearchResult{
		Records:        append([]domain.EvidenceRecord(nil), s.records...),
		Source:         domain.SourceTypePubMed,
		SearchDuration: time.Millisecond,
	}, nil
}

func (s *stubProvider) SourceType() domain.SourceType { return domain.SourceTypePubMed }
func (s *stubProvider) Name() string                  { return "PubMed" }
func (s *stubProvider) IsEnabled() bool               { return true }

func newTestServer(t *testing.T, records []domain.EvidenceRecord) *Server {
	t.Helper()

	registry := providers.NewRegistry()
	registry.Register(&stubProvider{records: records})

	terms := search.DefaultTerms()
	metrics := observability.NewMetricsWith(prometheus.NewRegistry(), "test")
	engine := search.NewEngine(
		registry,
		search.NewCache(time.Minute, 10),
		search.NewScorer(search.DefaultScoreWeights(), terms),
		search.DefaultEngineConfig(),
		zerolog.Nop(),
		metrics,
	)

	return NewServer(
		Config{Address: "127.0.0.1:0", MetricsEnabled: true, MetricsPath: "/metrics"},
		engine,
		search.NewComposer(),
		query.NewTranslator(terms.Translations),
		zerolog.Nop(),
	)
}

func postSearch(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evidence/search", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSearchEvidence(t *testing.T) {
	records := []domain.EvidenceRecord{
		{
			Title:    "Exercise therapy for chronic low back pain",
			Authors:  []string{"Smith J", "Lee K", "Novak P"},
			DOI:      "10.1000/lbp.2023",
			Year:     "2023",
			Abstract: "Exercise therapy reduced pain and disability.",
			Source:   domain.SourceTypePubMed,
		},
	}
	s := newTestServer(t, records)

	rec := postSearch(t, s, `{
		"term": "dolor lumbar",
		"specialty": "physical therapy",
		"intent": "treatment"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchEvidenceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "dolor lumbar", resp.Term)
	assert.Equal(t, "low back pain", resp.TranslatedTerm, "Spanish term translated for outbound search")
	assert.Equal(t, 1, resp.RecordCount)
	require.Len(t, resp.Evidences, 1)
	assert.Equal(t, "Exercise therapy for chronic low back pain", resp.Evidences[0].Title)
	assert.Greater(t, resp.Evidences[0].RelevanceScore, 0.0)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.Contains(t, resp.Text, "Smith J et al.")
	require.Len(t, resp.Citations, 1)
	assert.Contains(t, resp.Citations[0], "DOI: 10.1000/lbp.2023")
}

func TestSearchEvidenceNoResults(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postSearch(t, s, `{"term": "dolor lumbar"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchEvidenceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Zero(t, resp.RecordCount)
	assert.Zero(t, resp.Confidence)
	assert.Contains(t, resp.Text, "No se encontró evidencia científica")
}

func TestSearchEvidenceValidation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"term":`},
		{name: "missing term", body: `{"specialty": "physical therapy"}`},
		{name: "term too short", body: `{"term": "x"}`},
		{name: "invalid intent", body: `{"term": "knee pain", "intent": "surgery"}`},
		{name: "negative age", body: `{"term": "knee pain", "patient_age": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSearch(t, s, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestSearchEvidenceUsesExtractorTerms(t *testing.T) {
	records := []domain.EvidenceRecord{
		{Title: "Swallowing therapy outcomes in dysphagia", Year: "2022", DOI: "10.1000/d", Source: domain.SourceTypePubMed},
	}
	s := newTestServer(t, records)

	rec := postSearch(t, s, `{
		"term": "problemas para tragar",
		"cleaned_term": "disfagia",
		"condition_keywords": ["dysphagia"],
		"specialty": "speech therapy",
		"intent": "rehabilitation"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchEvidenceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "dysphagia", resp.TranslatedTerm, "cleaned term translated for outbound search")
	assert.Equal(t, 1, resp.RecordCount)
	assert.Contains(t, resp.Text, "estrategias de rehabilitación")
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("caller supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "caller-id")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, "caller-id", rec.Header().Get("X-Request-ID"))
	})

	t.Run("generated when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}
