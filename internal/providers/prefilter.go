package providers

import (
	"strings"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
)

// PreFilter is the coarse, field-level relevance filter providers apply
// before returning candidates. It requires a minimum number of query
// keyword hits in the title and drops generic review/meta-analysis
// titles that carry no query keyword at all. Fine-grained scoring
// happens later in the relevance scorer; this only trims obvious noise
// from the candidate pool.
type PreFilter struct {
	// MinTitleHits is the minimum count of query-term hits required in
	// the title. Zero disables the hit requirement.
	MinTitleHits int

	// ExcludePhrases mark generic background-evidence titles
	// (e.g. "review", "meta-analysis") that are dropped when they match
	// no query keyword.
	ExcludePhrases []string
}

// DefaultPreFilter returns the filter used by the bundled providers.
func DefaultPreFilter() PreFilter {
	return PreFilter{
		MinTitleHits:   1,
		ExcludePhrases: []string{"review", "meta-analysis", "overview"},
	}
}

// Keep reports whether a candidate title survives the coarse filter for
// the given query.
func (f PreFilter) Keep(title string, q domain.Query) bool {
	lower := strings.ToLower(title)
	if lower == "" {
		return false
	}

	hits := f.titleHits(lower, q)

	// Generic review titles with no query keyword are background
	// material, not candidates.
	if hits == 0 {
		for _, phrase := range f.ExcludePhrases {
			if strings.Contains(lower, phrase) {
				return false
			}
		}
	}

	return hits >= f.MinTitleHits
}

// titleHits counts distinct query terms present in the lowercased title.
// Terms come from the translated query and the specialty hint; tokens
// shorter than four characters are skipped to avoid noise matches,
// unless the query yields no longer term at all.
func (f PreFilter) titleHits(lowerTitle string, q domain.Query) int {
	hits := 0
	for _, term := range filterTerms(q) {
		if strings.Contains(lowerTitle, term) {
			hits++
		}
	}
	return hits
}

func filterTerms(q domain.Query) []string {
	seen := make(map[string]struct{})
	var terms []string

	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if len(s) < 4 {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		terms = append(terms, s)
	}

	// The full translated term first, then its individual tokens.
	add(q.Term())
	for _, tok := range strings.Fields(q.Term()) {
		add(tok)
	}
	for _, tok := range strings.Fields(q.Specialty) {
		add(tok)
	}

	// Queries like "flu" or "tos" produce no terms at all under the
	// length cutoff; keep the raw term so the query itself always counts
	// and short queries are not rejected wholesale.
	if len(terms) == 0 {
		if raw := strings.ToLower(strings.TrimSpace(q.Term())); raw != "" {
			terms = append(terms, raw)
		}
	}
	return terms
}
