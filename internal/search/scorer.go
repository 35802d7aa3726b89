package search

import (
	"strconv"
	"strings"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
	"github.com/Diegogigi/medconnect-evidence/internal/query"
)

// RecencyBucket awards a bonus to records published in or after MinYear.
type RecencyBucket struct {
	MinYear int     `mapstructure:"min_year"`
	Bonus   float64 `mapstructure:"bonus"`
}

// ScoreWeights are the tunable constants of the relevance score. The
// defaults were chosen empirically in production use; they are carried
// as configuration rather than re-derived.
type ScoreWeights struct {
	// ConditionKeyword is awarded per distinct condition/specialty
	// keyword from the query matched in the title.
	ConditionKeyword float64 `mapstructure:"condition_keyword"`

	// SpecialtyTerm is awarded per specialty-domain term matched.
	SpecialtyTerm float64 `mapstructure:"specialty_term"`

	// TreatmentTerm is awarded per generic treatment-intent term matched.
	TreatmentTerm float64 `mapstructure:"treatment_term"`

	// Recency buckets are evaluated top-down; the first bucket whose
	// MinYear the publication year reaches wins.
	Recency []RecencyBucket `mapstructure:"recency"`

	// DOIBonus is awarded when a non-sentinel DOI is present.
	DOIBonus float64 `mapstructure:"doi_bonus"`

	// ExclusionPenalty is subtracted per matched exclusion term. These
	// mark background evidence (reviews, editorials), down-weighted
	// rather than dropped.
	ExclusionPenalty float64 `mapstructure:"exclusion_penalty"`

	// GenericPenalty is subtracted when the title contains only generic
	// terms with no specific condition keyword match.
	GenericPenalty float64 `mapstructure:"generic_penalty"`

	// MinScore is the inclusion threshold after scoring; RelaxedMinScore
	// replaces it when fewer than the target count of records remain.
	MinScore        float64 `mapstructure:"min_score"`
	RelaxedMinScore float64 `mapstructure:"relaxed_min_score"`
}

// DefaultScoreWeights returns the production weight set.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		ConditionKeyword: 15,
		SpecialtyTerm:    10,
		TreatmentTerm:    8,
		Recency: []RecencyBucket{
			{MinYear: 2023, Bonus: 10},
			{MinYear: 2020, Bonus: 8},
			{MinYear: 2018, Bonus: 5},
			{MinYear: 2015, Bonus: 3},
		},
		DOIBonus:         5,
		ExclusionPenalty: 10,
		GenericPenalty:   5,
		MinScore:         15,
		RelaxedMinScore:  8,
	}
}

// Scorer assigns a relevance score to evidence records. Score is a pure
// function of its inputs: same record, query, and term set always yield
// the same value. The score is a weighted sum, not a probability, and
// is floored at zero so ranking stays a non-negative ordering.
type Scorer struct {
	weights ScoreWeights
	terms   *Terms
}

// NewScorer creates a Scorer with the given weights and term tables.
func NewScorer(weights ScoreWeights, terms *Terms) *Scorer {
	if terms == nil {
		terms = DefaultTerms()
	}
	return &Scorer{weights: weights, terms: terms}
}

// Weights returns the active weight set.
func (s *Scorer) Weights() ScoreWeights {
	return s.weights
}

// Score computes the relevance score of a record for a query and its
// extractor-supplied term set.
func (s *Scorer) Score(rec domain.EvidenceRecord, q domain.Query, ts query.TermSet) float64 {
	title := strings.ToLower(rec.Title)
	if title == "" {
		return 0
	}

	score := 0.0

	// Condition/specialty keywords from the query, one bonus per
	// distinct match.
	conditionMatches := countDistinctMatches(title, ts.Keywords(q.RawTerm))
	score += float64(conditionMatches) * s.weights.ConditionKeyword

	// Specialty-domain terms: the configured vocabulary for the query's
	// specialty plus any extractor-supplied specialty terms.
	specialtyTerms := append([]string{}, s.terms.ForSpecialty(q.Specialty)...)
	specialtyTerms = append(specialtyTerms, ts.SpecialtyTerms...)
	score += float64(countDistinctMatches(title, specialtyTerms)) * s.weights.SpecialtyTerm

	// Generic treatment-intent terms.
	score += float64(countDistinctMatches(title, s.terms.TreatmentTerms)) * s.weights.TreatmentTerm

	// Publication-year recency bucket.
	score += s.recencyBonus(rec.Year)

	// DOI presence.
	if rec.HasDOI() {
		score += s.weights.DOIBonus
	}

	// Exclusion terms: background-evidence markers, down-weighted.
	score -= float64(countDistinctMatches(title, s.terms.ExclusionTerms)) * s.weights.ExclusionPenalty

	// Generic-only titles with no condition match.
	if conditionMatches == 0 && countDistinctMatches(title, s.terms.GenericTerms) > 0 {
		score -= s.weights.GenericPenalty
	}

	if score < 0 {
		return 0
	}
	return score
}

// recencyBonus returns the bonus for the record's publication year.
// A year of "N/A" (or anything non-numeric) earns nothing.
func (s *Scorer) recencyBonus(year string) float64 {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return 0
	}
	for _, bucket := range s.weights.Recency {
		if y >= bucket.MinYear {
			return bucket.Bonus
		}
	}
	return 0
}

// countDistinctMatches counts the terms present in the lowercased title.
// Terms are folded before matching so accented input still matches.
func countDistinctMatches(lowerTitle string, terms []string) int {
	seen := make(map[string]struct{}, len(terms))
	count := 0
	for _, term := range terms {
		term = query.Fold(term)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if strings.Contains(lowerTitle, term) {
			count++
		}
	}
	return count
}
