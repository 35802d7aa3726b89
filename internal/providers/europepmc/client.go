// Package europepmc implements the providers.Provider interface against
// the Europe PMC REST API.
package europepmc

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
	// DefaultBaseURL is the Europe PMC REST base URL.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultMinInterval is the minimum interval between requests.
	DefaultMinInterval = 350 * time.Millisecond

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultPageSize is the default page size for searches.
	DefaultPageSize = 20

	// articleBaseURL is the public article URL prefix.
	articleBaseURL = "https://europepmc.org/article/"

	// sourceName is the human-readable name for this provider.
	sourceName = "Europe PMC"

	// maxResponseBytes bounds response body reads.
	maxResponseBytes = 10 << 20
)

// Config holds the configuration for the Europe PMC client.
type Config struct {
	// BaseURL is the REST base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Email identifies the caller to Europe PMC. Optional.
	Email string

	// Timeout is the request timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MinInterval is the minimum interval between requests.
	// Defaults to DefaultMinInterval.
	MinInterval time.Duration

	// PageSize is the page size for searches. Defaults to
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
}

// Client implements providers.Provider for Europe PMC.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	prefilter  providers.PreFilter
}

// Compile-time check that Client implements Provider.
var _ providers.Provider = (*Client)(nil)

// New creates a new Europe PMC client.
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

// NewWithHTTPClient creates a Europe PMC client with a custom HTTP
// client. Useful for tests with mock servers.
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
	return domain.SourceTypeEuropePMC
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether the provider is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Search queries the Europe PMC search endpoint in a single round trip
// and normalizes the results into EvidenceRecords, applying the coarse
// pre-filter before returning.
func (c *Client) Search(ctx context.Context, q domain.Query) (*providers.SearchResult, error) {
	if !c.config.Enabled {
		return nil, domain.ErrProviderDisabled
	}

	startTime := time.Now()

	u, err := url.Parse(c.config.BaseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	params := u.Query()
	params.Set("query", q.Term())
	params.Set("format", "json")
	params.Set("pageSize", strconv.Itoa(c.config.PageSize))
	params.Set("resultType", "core")
	if c.config.Email != "" {
		params.Set("email", c.config.Email)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalAPIError(domain.SourceTypeEuropePMC, resp.StatusCode, string(body), nil)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.NewParseError(domain.SourceTypeEuropePMC, err)
	}

	records := make([]domain.EvidenceRecord, 0, len(parsed.ResultList.Results))
	for _, res := range parsed.ResultList.Results {
		rec := c.resultToRecord(res)
		if !c.prefilter.Keep(rec.Title, q) {
			continue
		}
		records = append(records, rec)
	}

	return &providers.SearchResult{
		Records:        records,
		Source:         domain.SourceTypeEuropePMC,
		SearchDuration: time.Since(startTime),
	}, nil
}

// resultToRecord converts a Europe PMC result to a domain.EvidenceRecord.
func (c *Client) resultToRecord(res result) domain.EvidenceRecord {
	pubDate := res.FirstPublicationDate
	if pubDate == "" {
		pubDate = res.PubYear
	}

	var keywords []string
	if res.KeywordList != nil {
		keywords = res.KeywordList.Keywords
	}

	return domain.EvidenceRecord{
		Title:           strings.TrimSpace(res.Title),
		Authors:         extractAuthors(res),
		DOI:             domain.NormalizeDOI(res.DOI),
		PublicationDate: domain.NormalizeDate(pubDate),
		Year:            domain.NormalizeYear(pubDate),
		Abstract:        strings.TrimSpace(res.AbstractText),
		Source:          domain.SourceTypeEuropePMC,
		EvidenceLevel:   domain.ClassifyEvidenceLevel(res.Title, res.AbstractText),
		Keywords:        keywords,
		URL:             recordURL(res),
	}
}

// extractAuthors prefers the structured author list and falls back to
// splitting the preformatted author string.
func extractAuthors(res result) []string {
	if res.AuthorList != nil && len(res.AuthorList.Authors) > 0 {
		authors := make([]string, 0, len(res.AuthorList.Authors))
		for _, a := range res.AuthorList.Authors {
			name := a.FullName
			if name == "" && (a.FirstName != "" || a.LastName != "") {
				name = strings.TrimSpace(a.FirstName + " " + a.LastName)
			}
			if name != "" {
				authors = append(authors, name)
			}
		}
		return authors
	}

	if res.AuthorString == "" {
		return nil
	}
	parts := strings.Split(strings.TrimSuffix(res.AuthorString, "."), ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			authors = append(authors, p)
		}
	}
	return authors
}

// recordURL builds the public article URL, preferring the full-text link
// when one is present.
func recordURL(res result) string {
	if res.FullTextURLList != nil {
		for _, ft := range res.FullTextURLList.FullTextURL {
			if ft.URL != "" && strings.EqualFold(ft.DocumentStyle, "html") {
				return ft.URL
			}
		}
	}
	if res.Source != "" && res.ID != "" {
		return articleBaseURL + strings.ToUpper(res.Source) + "/" + res.ID
	}
	return ""
}
