package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/httpclient"
	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/resilience"
)

// StructuredProvider adapts a structured event-search API. Unlike the SERP
// provider it receives typed geographic and date fields, which it narrows
// into the uniform item shape at this boundary.
type StructuredProvider struct {
	config *common.StructuredConfig
	client *http.Client
	logger arbor.ILogger
}

// NewStructured creates the structured API provider.
func NewStructured(config *common.StructuredConfig, logger arbor.ILogger) *StructuredProvider {
	return &StructuredProvider{
		config: config,
		// Per-attempt timeouts come from the resilience wrapper's context.
		client: httpclient.NewDefaultHTTPClient(0),
		logger: logger,
	}
}

// Name implements SearchProvider.
func (p *StructuredProvider) Name() string {
	return "structured"
}

// structuredResponse is the provider's raw wire shape. It never leaves this
// package.
type structuredResponse struct {
	Events []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Summary     string `json:"summary"`
		City        string `json:"city"`
		CountryCode string `json:"country_code"`
		StartsOn    string `json:"starts_on"`
	} `json:"events"`
}

// Search implements SearchProvider.
func (p *StructuredProvider) Search(ctx context.Context, params interfaces.SearchParams) (*interfaces.SearchResult, error) {
	endpoint, err := p.endpoint(params)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("X-API-Key", p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var payload structuredResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items := make([]interfaces.SearchItem, 0, len(payload.Events))
	for _, ev := range payload.Events {
		if strings.TrimSpace(ev.URL) == "" {
			continue
		}
		items = append(items, interfaces.SearchItem{
			URL:         ev.URL,
			Title:       ev.Title,
			Snippet:     ev.Summary,
			City:        ev.City,
			CountryCode: ev.CountryCode,
			DateText:    ev.StartsOn,
		})
	}

	return &interfaces.SearchResult{Items: items}, nil
}

func (p *StructuredProvider) endpoint(params interfaces.SearchParams) (string, error) {
	base, err := url.Parse(strings.TrimRight(p.config.BaseURL, "/") + "/v1/events")
	if err != nil {
		return "", fmt.Errorf("invalid structured provider base URL: %w", err)
	}

	values := url.Values{}
	values.Set("query", params.Query)
	if params.Limit > 0 {
		values.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Country != "" {
		values.Set("country", params.Country)
	}
	if !params.DateFrom.IsZero() {
		values.Set("date_from", params.DateFrom.Format("2006-01-02"))
	}
	if !params.DateTo.IsZero() {
		values.Set("date_to", params.DateTo.Format("2006-01-02"))
	}

	base.RawQuery = values.Encode()
	return base.String(), nil
}
