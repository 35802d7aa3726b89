package search

import (
	"fmt"
	"strings"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
)

// Intent selects the response template.
type Intent string

const (
	IntentTreatment      Intent = "treatment"
	IntentDiagnosis      Intent = "diagnosis"
	IntentRehabilitation Intent = "rehabilitation"
)

// IsValidIntent returns true if the intent is supported.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentTreatment, IntentDiagnosis, IntentRehabilitation:
		return true
	}
	return false
}

// Response is the composed, citation-annotated summary handed to the
// downstream consumer (e.g. a chat layer). The engine has no knowledge
// of how it is rendered further.
type Response struct {
	// Text is the templated summary with per-evidence sentences.
	Text string `json:"text"`

	// Citations are formatted references, one per cited record.
	Citations []string `json:"citations"`

	// Confidence is the mean relevance score of the cited records
	// normalized to [0,1]. It is a presentation-layer heuristic, not a
	// statistical guarantee.
	Confidence float64 `json:"confidence"`

	// Evidences are the records the summary was composed from.
	Evidences []domain.EvidenceRecord `json:"evidences"`
}

const (
	// confidenceScale divides the mean relevance score to map it into
	// [0,1]. The value is empirical: a record matching a condition
	// keyword, a specialty term, a recency bucket and carrying a DOI
	// scores around this mark.
	confidenceScale = 45.0

	// snippetLength bounds the abstract excerpt per evidence sentence.
	snippetLength = 200

	disclaimer = "Esta información es orientativa y no reemplaza la evaluación de un profesional de la salud."
)

// intros maps each intent to its opening sentence.
var intros = map[Intent]string{
	IntentTreatment:      "Según la evidencia científica disponible, se describen las siguientes opciones de tratamiento:",
	IntentDiagnosis:      "La literatura científica consultada aporta los siguientes hallazgos diagnósticos:",
	IntentRehabilitation: "La evidencia disponible sugiere las siguientes estrategias de rehabilitación:",
}

// Composer turns a ranked record list into a templated summary.
type Composer struct{}

// NewComposer creates a Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose builds the response for the given records and intent. An
// empty record list yields an explicit "no evidence" text with zero
// confidence rather than an error.
func (c *Composer) Compose(records []domain.EvidenceRecord, intent Intent) Response {
	if !IsValidIntent(intent) {
		intent = IntentTreatment
	}

	if len(records) == 0 {
		return Response{
			Text:       "No se encontró evidencia científica específica para esta consulta. " + disclaimer,
			Citations:  []string{},
			Confidence: 0,
			Evidences:  []domain.EvidenceRecord{},
		}
	}

	var sb strings.Builder
	sb.WriteString(intros[intent])
	sb.WriteString("\n\n")

	citations := make([]string, 0, len(records))
	totalScore := 0.0

	for i, rec := range records {
		sb.WriteString(fmt.Sprintf("%d. %s (%s): %s\n", i+1, formatAuthors(rec.Authors), rec.Year, snippet(rec)))
		citations = append(citations, formatCitation(rec))
		totalScore += rec.RelevanceScore
	}

	sb.WriteString("\n")
	sb.WriteString(disclaimer)

	confidence := totalScore / float64(len(records)) / confidenceScale
	if confidence > 1 {
		confidence = 1
	}

	return Response{
		Text:       sb.String(),
		Citations:  citations,
		Confidence: confidence,
		Evidences:  records,
	}
}

// formatAuthors renders the author list for a per-evidence sentence:
// "Pérez J", "Pérez J y García M", or "Pérez J et al." for three or more.
func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return "Autores no disponibles"
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " y " + authors[1]
	default:
		return authors[0] + " et al."
	}
}

// snippet excerpts the abstract at a word boundary, falling back to the
// title when no abstract is available.
func snippet(rec domain.EvidenceRecord) string {
	text := strings.TrimSpace(rec.Abstract)
	if text == "" {
		text = strings.TrimSpace(rec.Title)
	}
	if len(text) <= snippetLength {
		return text
	}
	cut := text[:snippetLength]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// formatCitation renders one bibliographic reference.
func formatCitation(rec domain.EvidenceRecord) string {
	var sb strings.Builder
	sb.WriteString(formatAuthors(rec.Authors))
	sb.WriteString(fmt.Sprintf(" (%s). %s. %s.", rec.Year, rec.Title, rec.Source))
	if rec.HasDOI() {
		sb.WriteString(" DOI: " + rec.DOI)
	} else if rec.URL != "" {
		sb.WriteString(" Disponible en: " + rec.URL)
	}
	return sb.String()
}
