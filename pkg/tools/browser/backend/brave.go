package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/entrhq/pagewise/pkg/types"
)

// DefaultBraveURL is the Brave web search endpoint.
const DefaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave searches through the Brave Search API.
type Brave struct {
	apiKey   string
	endpoint string
	fetcher  *Fetcher
}

// NewBrave creates a Brave backend. An empty endpoint uses DefaultBraveURL.
func NewBrave(apiKey, endpoint string, fetcher *Fetcher) *Brave {
	if endpoint == "" {
		endpoint = DefaultBraveURL
	}
	return &Brave{apiKey: apiKey, endpoint: strings.TrimRight(endpoint, "/"), fetcher: fetcher}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search calls the web search endpoint with count set to topN.
func (b *Brave) Search(ctx context.Context, query string, topN int) (types.Document, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(topN))

	header := http.Header{}
	header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.fetcher.getJSON(ctx, b.endpoint+"?"+params.Encode(), header)
	if err != nil {
		return types.Document{}, fmt.Errorf("HTTP error for brave search: %w", err)
	}

	var raw braveResponse
	if err := json.Unmarshal([]byte(resp.Body), &raw); err != nil {
		return types.Document{}, fmt.Errorf("JSON error: %w", err)
	}

	results := make([]Result, 0, len(raw.Web.Results))
	for _, r := range raw.Web.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: stripTags(r.Description)})
	}
	return ResultsPage(query, topResults(results, topN)), nil
}

// Fetch retrieves a page directly.
func (b *Brave) Fetch(ctx context.Context, rawURL string) (types.Document, error) {
	return b.fetcher.Fetch(ctx, rawURL)
}
