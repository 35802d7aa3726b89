package search

import (
	"github.com/Diegogigi/medconnect-evidence/internal/domain"
)

// Deduplicator collapses records referring to the same work. Two records
// share an identity when their normalized DOIs match or their normalized
// titles match exactly.
type Deduplicator struct{}

// NewDeduplicator creates a Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Dedupe returns the input with duplicate works removed, preserving
// input order so the first-seen representative of each identity group
// is kept. The operation is idempotent: deduping an already-deduped
// list returns it unchanged.
func (d *Deduplicator) Dedupe(records []domain.EvidenceRecord) []domain.EvidenceRecord {
	if len(records) <= 1 {
		return records
	}

	seenDOIs := make(map[string]struct{}, len(records))
	seenTitles := make(map[string]struct{}, len(records))
	out := make([]domain.EvidenceRecord, 0, len(records))

	for _, rec := range records {
		doi := domain.NormalizeDOI(rec.DOI)
		titleKey := domain.NormalizeTitle(rec.Title)

		if doi != domain.NoDOI {
			if _, dup := seenDOIs[doi]; dup {
				continue
			}
		}
		if titleKey != "" {
			if _, dup := seenTitles[titleKey]; dup {
				continue
			}
		}

		if doi != domain.NoDOI {
			seenDOIs[doi] = struct{}{}
		}
		if titleKey != "" {
			seenTitles[titleKey] = struct{}{}
		}
		out = append(out, rec)
	}

	return out
}
