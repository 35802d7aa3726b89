package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExternalAPIError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewExternalAPIError(SourceTypePubMed, 503, "service unavailable", cause)

	assert.Contains(t, err.Error(), "pubmed")
	assert.Contains(t, err.Error(), "503")
	assert.ErrorIs(t, err, cause)

	var apiErr *ExternalAPIError
	assert.ErrorAs(t, error(err), &apiErr)
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestParseError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewParseError(SourceTypeEuropePMC, cause)

	assert.Contains(t, err.Error(), "europepmc")
	assert.ErrorIs(t, err, cause)
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	assert.NotErrorIs(t, ErrNoEvidence, ErrProviderDisabled)
	assert.NotErrorIs(t, ErrProviderDegraded, ErrProviderDisabled)
}
