package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEvidenceLevel(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		abstract string
		expected EvidenceLevel
	}{
		{
			name:     "systematic review is level I",
			title:    "Exercise for low back pain: a systematic review",
			expected: EvidenceLevelI,
		},
		{
			name:     "meta-analysis is level I",
			title:    "A meta-analysis of dysphagia interventions",
			expected: EvidenceLevelI,
		},
		{
			name:     "randomized controlled trial is level II",
			title:    "Manual therapy for neck pain: a randomized controlled trial",
			expected: EvidenceLevelII,
		},
		{
			name:     "rct as standalone token is level II",
			title:    "Early mobilization after stroke: an RCT",
			expected: EvidenceLevelII,
		},
		{
			name:     "rct inside another word does not match",
			title:    "Myocardial infarction outcomes study",
			expected: EvidenceLevelV,
		},
		{
			name:     "cohort study is level III",
			title:    "A prospective cohort study of knee osteoarthritis",
			expected: EvidenceLevelIII,
		},
		{
			name:     "guideline is level IV",
			title:    "Clinical guideline for the management of hypertension",
			expected: EvidenceLevelIV,
		},
		{
			name:     "case report is level V",
			title:    "A case report of rare aphasia presentation",
			expected: EvidenceLevelV,
		},
		{
			name:     "no marker defaults to level V",
			title:    "Shoulder pain treatment outcomes",
			expected: EvidenceLevelV,
		},
		{
			name:     "review and cohort together classify by rigor",
			title:    "Systematic review of cohort studies on back pain",
			expected: EvidenceLevelI,
		},
		{
			name:     "marker in abstract only",
			title:    "Dysphagia outcomes in elderly patients",
			abstract: "We conducted a randomised controlled trial with 120 participants.",
			expected: EvidenceLevelII,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyEvidenceLevel(tt.title, tt.abstract))
		})
	}
}

func TestEvidenceRecordHasDOI(t *testing.T) {
	assert.True(t, (&EvidenceRecord{DOI: "10.1000/xyz"}).HasDOI())
	assert.False(t, (&EvidenceRecord{DOI: NoDOI}).HasDOI())
	assert.False(t, (&EvidenceRecord{DOI: ""}).HasDOI())
	assert.False(t, (&EvidenceRecord{DOI: "   "}).HasDOI())
}

func TestEvidenceRecordCitationURL(t *testing.T) {
	withDOI := &EvidenceRecord{DOI: "10.1000/xyz", URL: "https://pubmed.ncbi.nlm.nih.gov/123/"}
	assert.Equal(t, "https://doi.org/10.1000/xyz", withDOI.CitationURL())

	withoutDOI := &EvidenceRecord{DOI: NoDOI, URL: "https://pubmed.ncbi.nlm.nih.gov/123/"}
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/123/", withoutDOI.CitationURL())
}

func TestNewQuery(t *testing.T) {
	t.Run("translated term used for outbound requests", func(t *testing.T) {
		q := NewQuery("dolor lumbar", "fisioterapia", nil, "low back pain")
		assert.Equal(t, "dolor lumbar", q.RawTerm)
		assert.Equal(t, "low back pain", q.Term())
	})

	t.Run("empty translation falls back to raw term", func(t *testing.T) {
		q := NewQuery("knee pain", "", nil, "")
		assert.Equal(t, "knee pain", q.Term())
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		q := NewQuery("  knee pain  ", "  physical therapy  ", nil, "")
		assert.Equal(t, "knee pain", q.RawTerm)
		assert.Equal(t, "physical therapy", q.Specialty)
	})
}

func TestIsValidSourceType(t *testing.T) {
	assert.True(t, IsValidSourceType(SourceTypePubMed))
	assert.True(t, IsValidSourceType(SourceTypeEuropePMC))
	assert.False(t, IsValidSourceType(SourceType("scopus")))
}
