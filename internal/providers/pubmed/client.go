// Package pubmed implements the providers.Provider interface against the
// NCBI PubMed E-utilities API.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
	"github.com/Diegogigi/medconnect-evidence/internal/providers"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultMinInterval is the minimum interval between requests
	// without an API key (NCBI allows 3 req/sec).
	DefaultMinInterval = 400 * time.Millisecond

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultPageSize is the default maximum IDs fetched per search.
	DefaultPageSize = 20

	// articleBaseURL is the public article URL prefix.
	articleBaseURL = "https://pubmed.ncbi.nlm.nih.gov/"

	// sourceName is the human-readable name for this provider.
	sourceName = "PubMed"

	// maxResponseBytes bounds response body reads.
	maxResponseBytes = 10 << 20
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the E-utilities base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is the NCBI API key. Optional; raises the allowed rate.
	APIKey string

	// Tool and Email identify the caller to NCBI, as their usage policy
	// requests.
	Tool  string
	Email string

	// Timeout is the request timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MinInterval is the minimum interval between requests.
	// Defaults to DefaultMinInterval.
	MinInterval time.Duration

	// PageSize caps the IDs requested per search. Defaults to
	// DefaultPageSize.
	PageSize int

	// Enabled indicates whether this provider is enabled.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MinInterval == 0 {
		c.MinInterval = DefaultMinInterval
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Tool == "" {
		c.Tool = "medconnect-evidence"
	}
}

// Client implements providers.Provider for PubMed.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	prefilter  providers.PreFilter
}

// Compile-time check that Client implements Provider.
var _ providers.Provider = (*Client)(nil)

// New creates a new PubMed client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:     cfg.Timeout,
			MinInterval: cfg.MinInterval,
		}),
		prefilter: providers.DefaultPreFilter(),
	}
}

// NewWithHTTPClient creates a PubMed client with a custom HTTP client.
// Useful for tests with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		prefilter:  providers.DefaultPreFilter(),
	}
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether the provider is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Search queries PubMed in two steps: esearch.fcgi resolves the query to
// a PMID list, then esummary.fcgi fetches document summaries for those
// PMIDs. Results are normalized into EvidenceRecords and passed through
// the coarse pre-filter.
func (c *Client) Search(ctx context.Context, q domain.Query) (*providers.SearchResult, error) {
	if !c.config.Enabled {
		return nil, domain.ErrProviderDisabled
	}

	startTime := time.Now()

	ids, err := c.esearch(ctx, q.Term())
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	if len(ids) == 0 {
		return &providers.SearchResult{
			Records:        []domain.EvidenceRecord{},
			Source:         domain.SourceTypePubMed,
			SearchDuration: time.Since(startTime),
		}, nil
	}

	docs, err := c.esummary(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("esummary failed: %w", err)
	}

	records := make([]domain.EvidenceRecord, 0, len(docs))
	for _, doc := range docs {
		rec := c.docToRecord(doc)
		if !c.prefilter.Keep(rec.Title, q) {
			continue
		}
		records = append(records, rec)
	}

	return &providers.SearchResult{
		Records:        records,
		Source:         domain.SourceTypePubMed,
		SearchDuration: time.Since(startTime),
	}, nil
}

// esearch resolves a query term to a list of PMIDs.
func (c *Client) esearch(ctx context.Context, term string) ([]string, error) {
	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	params := u.Query()
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(c.config.PageSize))
	params.Set("sort", "relevance")
	c.setIdentity(params)
	u.RawQuery = params.Encode()

	var result esearchResponse
	if err := c.getJSON(ctx, u.String(), &result); err != nil {
		return nil, err
	}

	// A phrase-not-found response is a normal empty outcome.
	if el := result.ESearchResult.ErrorList; el != nil && len(el.PhraseNotFound) > 0 {
		return nil, nil
	}

	return result.ESearchResult.IDList, nil
}

// esummary fetches document summaries for the given PMIDs.
func (c *Client) esummary(ctx context.Context, ids []string) ([]summaryDoc, error) {
	u, err := url.Parse(c.config.BaseURL + "/esummary.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	params := u.Query()
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")
	c.setIdentity(params)
	u.RawQuery = params.Encode()

	var result esummaryResponse
	if err := c.getJSON(ctx, u.String(), &result); err != nil {
		return nil, err
	}

	docs, err := result.docs()
	if err != nil {
		return nil, domain.NewParseError(domain.SourceTypePubMed, err)
	}
	return docs, nil
}

// setIdentity attaches the API key and caller identification parameters.
func (c *Client) setIdentity(params url.Values) {
	if c.config.APIKey != "" {
		params.Set("api_key", c.config.APIKey)
	}
	params.Set("tool", c.config.Tool)
	if c.config.Email != "" {
		params.Set("email", c.config.Email)
	}
}

// getJSON executes a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.NewExternalAPIError(domain.SourceTypePubMed, resp.StatusCode, string(body), nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewParseError(domain.SourceTypePubMed, err)
	}
	return nil
}

// docToRecord converts an esummary document to a domain.EvidenceRecord.
func (c *Client) docToRecord(doc summaryDoc) domain.EvidenceRecord {
	doi := extractDOI(doc)

	authors := make([]string, 0, len(doc.Authors))
	for _, a := range doc.Authors {
		if a.Name == "" {
			continue
		}
		authors = append(authors, a.Name)
	}

	pubDate := doc.PubDate
	if pubDate == "" {
		pubDate = doc.EPubDate
	}

	return domain.EvidenceRecord{
		Title:           strings.TrimSpace(doc.Title),
		Authors:         authors,
		DOI:             doi,
		PublicationDate: domain.NormalizeDate(pubDate),
		Year:            domain.NormalizeYear(pubDate),
		Source:          domain.SourceTypePubMed,
		EvidenceLevel:   domain.ClassifyEvidenceLevel(doc.Title, ""),
		URL:             articleBaseURL + doc.UID + "/",
	}
}

// extractDOI pulls the DOI from the article ID list, falling back to
// ELocationID entries of the form "doi: 10.xxxx/yyy".
func extractDOI(doc summaryDoc) string {
	for _, aid := range doc.ArticleIDs {
		if strings.EqualFold(aid.IDType, "doi") {
			return domain.NormalizeDOI(aid.Value)
		}
	}

	eloc := strings.TrimSpace(doc.ELocationID)
	if rest, ok := strings.CutPrefix(strings.ToLower(eloc), "doi:"); ok {
		return domain.NormalizeDOI(rest)
	}

	return domain.NoDOI
}
