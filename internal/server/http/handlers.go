package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
	"github.com/Diegogigi/medconnect-evidence/internal/query"
	"github.com/Diegogigi/medconnect-evidence/internal/search"
)

// searchEvidenceRequest is the body of POST /api/v1/evidence/search.
// ConditionKeywords, SpecialtyTerms, and CleanedTerm come from the
// upstream NLP extractor; all are optional.
type searchEvidenceRequest struct {
	Term              string   `json:"term" validate:"required,min=2,max=500"`
	Specialty         string   `json:"specialty" validate:"max=100"`
	Intent            string   `json:"intent" validate:"omitempty,oneof=treatment diagnosis rehabilitation"`
	PatientAge        *int     `json:"patient_age" validate:"omitempty,gte=0,lte=120"`
	ConditionKeywords []string `json:"condition_keywords" validate:"max=20,dive,max=200"`
	SpecialtyTerms    []string `json:"specialty_terms" validate:"max=20,dive,max=200"`
	CleanedTerm       string   `json:"cleaned_term" validate:"max=500"`
}

// searchEvidence handles POST /api/v1/evidence/search.
func (s *Server) searchEvidence(w http.ResponseWriter, r *http.Request) {
	var req searchEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid field: "+verrs[0].Namespace())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	intent := search.Intent(req.Intent)
	if req.Intent == "" {
		intent = search.IntentTreatment
	}

	ts := query.TermSet{
		ConditionKeywords: req.ConditionKeywords,
		SpecialtyTerms:    req.SpecialtyTerms,
		CleanedTerm:       req.CleanedTerm,
	}

	term := req.Term
	if ts.CleanedTerm != "" {
		term = ts.CleanedTerm
	}
	translated := s.translator.Translate(term)
	q := domain.NewQuery(req.Term, req.Specialty, req.PatientAge, translated)

	start := time.Now()
	records := s.engine.Search(r.Context(), q, ts)
	resp := s.composer.Compose(records, intent)

	writeJSON(w, http.StatusOK, newSearchEvidenceResponse(q, resp, time.Since(start)))
}
