package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/pagewise/pkg/types"
)

// SearxNG searches through a SearxNG instance's JSON API.
type SearxNG struct {
	baseURL string
	fetcher *Fetcher
}

// NewSearxNG creates a SearxNG backend rooted at baseURL.
func NewSearxNG(baseURL string, fetcher *Fetcher) *SearxNG {
	return &SearxNG{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

type searxResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search queries {base}/search in the general category.
func (s *SearxNG) Search(ctx context.Context, query string, topN int) (types.Document, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", "general")
	endpoint := s.baseURL + "/search?" + params.Encode()

	resp, err := s.fetcher.getJSON(ctx, endpoint, nil)
	if err != nil {
		return types.Document{}, fmt.Errorf("HTTP error for %s/search: %w", s.baseURL, err)
	}

	var raw searxResponse
	if err := json.Unmarshal([]byte(resp.Body), &raw); err != nil {
		return types.Document{}, fmt.Errorf("JSON error: %w", err)
	}

	results := make([]Result, 0, len(raw.Results))
	for _, r := range raw.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return ResultsPage(query, topResults(results, topN)), nil
}

// Fetch retrieves a page directly.
func (s *SearxNG) Fetch(ctx context.Context, rawURL string) (types.Document, error) {
	return s.fetcher.Fetch(ctx, rawURL)
}
