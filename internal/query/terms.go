// Package query holds the inbound side of the evidence engine: the term
// set produced by the upstream clinical NLP extractor and the lexical
// translation applied to raw query terms before they are sent to
// bibliographic providers.
package query

import "strings"

// TermSet is the keyword bundle supplied by the upstream NLP term
// extractor. The engine treats it as an opaque input: it never derives
// keywords itself and must tolerate an empty set.
type TermSet struct {
	// ConditionKeywords are condition/specialty keywords extracted from
	// the clinical query (e.g. "low back pain", "dysphagia").
	ConditionKeywords []string

	// SpecialtyTerms are domain terms for the active specialty
	// (e.g. "physical therapy", "speech therapy").
	SpecialtyTerms []string

	// CleanedTerm is the extractor's cleaned form of the query.
	CleanedTerm string
}

// Keywords returns the condition keywords, falling back to the raw query
// string as the only keyword when the extractor supplied none.
func (ts TermSet) Keywords(rawTerm string) []string {
	if len(ts.ConditionKeywords) > 0 {
		return ts.ConditionKeywords
	}
	raw := strings.TrimSpace(rawTerm)
	if raw == "" {
		return nil
	}
	return []string{raw}
}

// IsEmpty reports whether the extractor produced no usable terms.
func (ts TermSet) IsEmpty() bool {
	return len(ts.ConditionKeywords) == 0 && len(ts.SpecialtyTerms) == 0 && strings.TrimSpace(ts.CleanedTerm) == ""
}
