// Package domain defines the core types shared by the evidence retrieval engine:
// clinical queries, normalized evidence records, source and evidence-level
// enumerations, and the error taxonomy used across provider boundaries.
package domain

import (
	"strings"
)

// SourceType identifies the bibliographic source that produced a record.
type SourceType string

const (
	// SourceTypePubMed is the NCBI PubMed E-utilities source.
	SourceTypePubMed SourceType = "pubmed"
	// SourceTypeEuropePMC is the Europe PMC REST source.
	SourceTypeEuropePMC SourceType = "europepmc"
)

// IsValidSourceType returns true if the source type is supported.
func IsValidSourceType(st SourceType) bool {
	switch st {
	case SourceTypePubMed, SourceTypeEuropePMC:
		return true
	}
	return false
}

// EvidenceLevel is a coarse ranking of study-design rigor, from I
// (systematic review / meta-analysis) down to V (case report / expert
// opinion). Records that match no level-indicating phrase default to V.
type EvidenceLevel string

const (
	EvidenceLevelI   EvidenceLevel = "I"
	EvidenceLevelII  EvidenceLevel = "II"
	EvidenceLevelIII EvidenceLevel = "III"
	EvidenceLevelIV  EvidenceLevel = "IV"
	EvidenceLevelV   EvidenceLevel = "V"
)

// NoDOI is the sentinel value used when a record carries no DOI.
// It is treated as "absent" for all identity and scoring purposes.
const NoDOI = "Sin DOI"

// EvidenceRecord is the common shape every provider response is
// normalized into. Records are produced fresh per request and are not
// mutated after construction except to set RelevanceScore.
type EvidenceRecord struct {
	Title           string        `json:"titulo"`
	Authors         []string      `json:"autores"`
	DOI             string        `json:"doi"`
	PublicationDate string        `json:"fecha_publicacion"`
	Year            string        `json:"año_publicacion"`
	Abstract        string        `json:"resumen"`
	Source          SourceType    `json:"fuente"`
	EvidenceLevel   EvidenceLevel `json:"nivel_evidencia"`
	RelevanceScore  float64       `json:"relevancia_score"`
	Keywords        []string      `json:"keywords,omitempty"`
	URL             string        `json:"url"`
}

// HasDOI returns true if the record carries a real DOI rather than the
// absent sentinel.
func (r *EvidenceRecord) HasDOI() bool {
	doi := strings.TrimSpace(r.DOI)
	return doi != "" && doi != NoDOI
}

// CitationURL returns the canonical URL for the record, preferring the
// DOI resolver when a DOI is present.
func (r *EvidenceRecord) CitationURL() string {
	if r.HasDOI() {
		return "https://doi.org/" + r.DOI
	}
	return r.URL
}

// Query is an immutable clinical search request. TranslatedTerm is the
// cleaned, lexically translated form used for outbound provider requests.
type Query struct {
	RawTerm        string
	Specialty      string
	PatientAge     *int
	TranslatedTerm string
}

// NewQuery constructs a Query. When translated is empty the raw term is
// used for outbound requests unchanged.
func NewQuery(raw, specialty string, age *int, translated string) Query {
	raw = strings.TrimSpace(raw)
	if strings.TrimSpace(translated) == "" {
		translated = raw
	}
	return Query{
		RawTerm:        raw,
		Specialty:      strings.TrimSpace(specialty),
		PatientAge:     age,
		TranslatedTerm: strings.TrimSpace(translated),
	}
}

// Term returns the term to send to providers.
func (q Query) Term() string {
	return q.TranslatedTerm
}

// evidenceLevelPhrases maps level-indicating phrases to their level,
// checked in order of rigor so that a title mentioning both a
// systematic review and a cohort classifies as level I.
var evidenceLevelPhrases = []struct {
	level   EvidenceLevel
	phrases []string
}{
	{EvidenceLevelI, []string{"systematic review", "meta-analysis", "metaanalysis", "meta analysis"}},
	{EvidenceLevelII, []string{"randomized controlled trial", "randomised controlled trial", "randomized clinical trial", "rct"}},
	{EvidenceLevelIII, []string{"cohort study", "cohort", "case-control", "case control"}},
	{EvidenceLevelIV, []string{"clinical guideline", "practice guideline", "guideline", "consensus statement"}},
	{EvidenceLevelV, []string{"case report", "expert opinion", "case series"}},
}

// ClassifyEvidenceLevel scans the title and abstract for level-indicating
// phrases and returns the matching evidence level. No match yields level V.
func ClassifyEvidenceLevel(title, abstract string) EvidenceLevel {
	text := strings.ToLower(title + " " + abstract)
	for _, entry := range evidenceLevelPhrases {
		for _, phrase := range entry.phrases {
			if phrase == "rct" {
				// Match "rct" only as a standalone token to avoid
				// substrings like "infarction".
				if containsToken(text, "rct") {
					return entry.level
				}
				continue
			}
			if strings.Contains(text, phrase) {
				return entry.level
			}
		}
	}
	return EvidenceLevelV
}

// containsToken reports whether word appears in text delimited by
// non-alphanumeric characters.
func containsToken(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		leftOK := start == 0 || !isAlnum(text[start-1])
		rightOK := end == len(text) || !isAlnum(text[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
