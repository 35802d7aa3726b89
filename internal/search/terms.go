// Package search contains the CPU-bound core of the evidence engine:
// result caching, deduplication, relevance scoring, fallback
// orchestration across providers, and response composition.
package search

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Diegogigi/medconnect-evidence/internal/query"
)

//go:embed terms.yaml
var defaultTermsYAML []byte

// Terms holds the per-specialty vocabularies consumed by the scorer and
// the query translator. It is injected data, never inline literals in
// scoring logic, so vocabularies can be tuned without code changes.
type Terms struct {
	// SpecialtyTerms maps a specialty key (e.g. "physical_therapy") to
	// its domain terms.
	SpecialtyTerms map[string][]string `yaml:"specialty_terms"`

	// TreatmentTerms are generic treatment-intent terms.
	TreatmentTerms []string `yaml:"treatment_terms"`

	// ExclusionTerms mark background evidence (reviews, editorials)
	// that is down-weighted rather than dropped.
	ExclusionTerms []string `yaml:"exclusion_terms"`

	// GenericTerms are non-specific title words that attract a penalty
	// when no condition keyword matches.
	GenericTerms []string `yaml:"generic_terms"`

	// Translations is the Spanish→English substitution table used when
	// building outbound query terms.
	Translations map[string]string `yaml:"translations"`
}

// LoadTerms parses a YAML term table.
func LoadTerms(data []byte) (*Terms, error) {
	var t Terms
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing term tables: %w", err)
	}
	return &t, nil
}

// DefaultTerms returns the embedded term tables.
func DefaultTerms() *Terms {
	t, err := LoadTerms(defaultTermsYAML)
	if err != nil {
		// The embedded asset is validated by tests; a parse failure here
		// is a build defect.
		panic(fmt.Sprintf("embedded terms.yaml is invalid: %v", err))
	}
	return t
}

// ForSpecialty returns the domain terms for a specialty hint, matching
// the key after diacritic folding and space/underscore normalization.
// Unknown specialties yield nil.
func (t *Terms) ForSpecialty(specialty string) []string {
	key := normalizeSpecialtyKey(specialty)
	if key == "" {
		return nil
	}
	return t.SpecialtyTerms[key]
}

func normalizeSpecialtyKey(specialty string) string {
	folded := query.Fold(specialty)
	out := make([]rune, 0, len(folded))
	for _, r := range folded {
		if r == ' ' || r == '-' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
