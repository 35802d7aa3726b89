package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
	"github.com/Diegogigi/medconnect-evidence/internal/query"
)

func scorerQuery() domain.Query {
	return domain.NewQuery("dolor lumbar", "physical therapy", nil, "low back pain")
}

func TestScoreComponents(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), DefaultTerms())
	q := scorerQuery()
	ts := query.TermSet{ConditionKeywords: []string{"low back pain"}}

	t.Run("condition keyword match", func(t *testing.T) {
		rec := domain.EvidenceRecord{Title: "Low back pain outcomes", Year: "N/A", DOI: domain.NoDOI}
		assert.Equal(t, 15.0, s.Score(rec, q, ts))
	})

	t.Run("doi bonus", func(t *testing.T) {
		without := domain.EvidenceRecord{Title: "Low back pain outcomes", Year: "N/A", DOI: domain.NoDOI}
		with := without
		with.DOI = "10.1000/x"
		assert.Equal(t, s.Score(without, q, ts)+5, s.Score(with, q, ts))
	})

	t.Run("recency buckets", func(t *testing.T) {
		base := domain.EvidenceRecord{Title: "Low back pain outcomes", DOI: domain.NoDOI}

		years := map[string]float64{
			"2024": 10,
			"2023": 10,
			"2021": 8,
			"2018": 5,
			"2016": 3,
			"2010": 0,
			"N/A":  0,
		}
		for year, bonus := range years {
			rec := base
			rec.Year = year
			assert.Equal(t, 15.0+bonus, s.Score(rec, q, ts), "year %s", year)
		}
	})

	t.Run("specialty term match", func(t *testing.T) {
		rec := domain.EvidenceRecord{
			Title: "Physiotherapy for low back pain",
			Year:  "N/A",
			DOI:   domain.NoDOI,
		}
		// 15 condition + 10 specialty + 8 for the treatment term
		// "therapy" contained in "physiotherapy".
		assert.Equal(t, 33.0, s.Score(rec, q, ts))
	})

	t.Run("empty title scores zero", func(t *testing.T) {
		rec := domain.EvidenceRecord{Title: "", Year: "2023", DOI: "10.1000/x"}
		assert.Equal(t, 0.0, s.Score(rec, q, ts))
	})
}

func TestScoreExclusionAndFloor(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), DefaultTerms())
	q := scorerQuery()
	ts := query.TermSet{ConditionKeywords: []string{"low back pain"}}

	t.Run("exclusion terms penalize", func(t *testing.T) {
		plain := domain.EvidenceRecord{Title: "Low back pain outcomes", Year: "N/A", DOI: domain.NoDOI}
		excluded := domain.EvidenceRecord{Title: "Low back pain outcomes: editorial", Year: "N/A", DOI: domain.NoDOI}
		assert.Less(t, s.Score(excluded, q, ts), s.Score(plain, q, ts))
	})

	t.Run("score floored at zero", func(t *testing.T) {
		rec := domain.EvidenceRecord{Title: "An editorial letter", Year: "N/A", DOI: domain.NoDOI}
		assert.Equal(t, 0.0, s.Score(rec, q, ts))
	})

	t.Run("generic only title penalized", func(t *testing.T) {
		generic := domain.EvidenceRecord{Title: "An evaluation of therapy", Year: "N/A", DOI: domain.NoDOI}
		// 8 treatment term - 5 generic penalty.
		assert.Equal(t, 3.0, s.Score(generic, q, ts))
	})

	t.Run("generic penalty waived when condition matches", func(t *testing.T) {
		rec := domain.EvidenceRecord{Title: "An evaluation of low back pain therapy", Year: "N/A", DOI: domain.NoDOI}
		// 15 condition + 8 treatment, no generic penalty.
		assert.Equal(t, 23.0, s.Score(rec, q, ts))
	})
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), DefaultTerms())
	q := scorerQuery()
	ts := query.TermSet{ConditionKeywords: []string{"low back pain"}, SpecialtyTerms: []string{"manual therapy"}}
	rec := domain.EvidenceRecord{
		Title: "Manual therapy and exercise for chronic low back pain",
		Year:  "2022",
		DOI:   "10.1000/x",
	}

	first := s.Score(rec, q, ts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Score(rec, q, ts))
	}
}

func TestScoreAccentedKeywordsFolded(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), DefaultTerms())
	q := domain.NewQuery("rehabilitación", "", nil, "rehabilitation")
	ts := query.TermSet{ConditionKeywords: []string{"rehabilitación"}}

	// The keyword is folded before matching, so the ASCII title matches.
	rec := domain.EvidenceRecord{Title: "Rehabilitacion outcomes after stroke", Year: "N/A", DOI: domain.NoDOI}
	assert.Greater(t, s.Score(rec, q, ts), 0.0)
}

func TestScoreRawTermFallback(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), DefaultTerms())
	q := domain.NewQuery("knee osteoarthritis", "", nil, "knee osteoarthritis")

	// No extractor keywords: the raw term itself is the keyword.
	rec := domain.EvidenceRecord{Title: "Knee osteoarthritis progression", Year: "N/A", DOI: domain.NoDOI}
	assert.Equal(t, 15.0, s.Score(rec, q, query.TermSet{}))
}
