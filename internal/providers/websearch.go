package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/httpclient"
	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/resilience"
)

// WebSearchProvider is the crawl/SERP-backed adapter. It fetches an HTML
// results page and narrows the markup into the uniform item shape. When the
// plain fetch parses to nothing and the browser fallback is enabled, the page
// is re-fetched through headless Chrome for JS-rendered result pages.
type WebSearchProvider struct {
	config *common.WebSearchConfig
	client *http.Client
	logger arbor.ILogger
}

// NewWebSearch creates the SERP provider.
func NewWebSearch(config *common.WebSearchConfig, logger arbor.ILogger) *WebSearchProvider {
	return &WebSearchProvider{
		config: config,
		// Per-attempt timeouts come from the resilience wrapper's context.
		client: httpclient.NewSERPClient(),
		logger: logger,
	}
}

// Name implements SearchProvider.
func (p *WebSearchProvider) Name() string {
	return "websearch"
}

// Search implements SearchProvider.
func (p *WebSearchProvider) Search(ctx context.Context, params interfaces.SearchParams) (*interfaces.SearchResult, error) {
	searchURL := p.searchURL(params.Query)

	items, err := p.fetchAndParse(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 && p.config.BrowserFallback {
		p.logger.Debug().Str("url", searchURL).Msg("Empty SERP parse, retrying via headless browser")
		html, rerr := renderHTML(ctx, searchURL, p.config.BrowserTimeoutDuration())
		if rerr != nil {
			p.logger.Warn().Err(rerr).Msg("Browser fallback failed")
		} else {
			items = p.parseResults(strings.NewReader(html))
		}
	}

	if params.Limit > 0 && len(items) > params.Limit {
		items = items[:params.Limit]
	}

	return &interfaces.SearchResult{Items: items}, nil
}

func (p *WebSearchProvider) searchURL(query string) string {
	values := url.Values{}
	values.Set("q", query)
	return strings.TrimRight(p.config.BaseURL, "?") + "?" + values.Encode()
}

func (p *WebSearchProvider) fetchAndParse(ctx context.Context, searchURL string) ([]interfaces.SearchItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("User-Agent", p.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.6")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	return p.parseResults(resp.Body), nil
}

// parseResults extracts result anchors from a DuckDuckGo-style HTML SERP.
func (p *WebSearchProvider) parseResults(body io.Reader) []interfaces.SearchItem {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to parse SERP HTML")
		return nil
	}

	var items []interfaces.SearchItem
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		anchor := s.Find("a.result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		target := resolveRedirect(href)
		if target == "" {
			return
		}
		items = append(items, interfaces.SearchItem{
			URL:     target,
			Title:   strings.TrimSpace(anchor.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
	})

	return items
}

// resolveRedirect unwraps SERP redirect links (the target hides in the uddg
// query parameter) and drops anything that is not an absolute http(s) URL.
func resolveRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if target := parsed.Query().Get("uddg"); target != "" {
		if unescaped, err := url.QueryUnescape(target); err == nil {
			href = unescaped
			parsed, err = url.Parse(href)
			if err != nil {
				return ""
			}
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}

// classifyStatus maps an HTTP status to the retry taxonomy: rate limits and
// server errors are transient, auth failures are permanent, anything else
// non-2xx fails without retry.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return resilience.Transient(fmt.Errorf("upstream returned status %d", status))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return resilience.Permanent(fmt.Errorf("upstream rejected credentials with status %d", status))
	default:
		return fmt.Errorf("upstream returned status %d", status)
	}
}
