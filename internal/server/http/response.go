package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
	"github.com/Diegogigi/medconnect-evidence/internal/search"
)

// searchEvidenceResponse is the body of a successful evidence search.
// Evidence records keep their domain JSON tags so downstream consumers
// see the same shape everywhere.
type searchEvidenceResponse struct {
	Term           string                  `json:"term"`
	TranslatedTerm string                  `json:"translated_term"`
	Specialty      string                  `json:"specialty,omitempty"`
	Text           string                  `json:"text"`
	Citations      []string                `json:"citations"`
	Confidence     float64                 `json:"confidence"`
	Evidences      []domain.EvidenceRecord `json:"evidences"`
	RecordCount    int                     `json:"record_count"`
	ProcessingTime string                  `json:"processing_time"`
}

func newSearchEvidenceResponse(q domain.Query, resp search.Response, elapsed time.Duration) searchEvidenceResponse {
	return searchEvidenceResponse{
		Term:           q.RawTerm,
		TranslatedTerm: q.TranslatedTerm,
		Specialty:      q.Specialty,
		Text:           resp.Text,
		Citations:      resp.Citations,
		Confidence:     resp.Confidence,
		Evidences:      resp.Evidences,
		RecordCount:    len(resp.Evidences),
		ProcessingTime: elapsed.String(),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
