package backend

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/entrhq/pagewise/pkg/types"
)

// DefaultDuckDuckGoURL is the JavaScript-free DuckDuckGo results page.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes DuckDuckGo's HTML results page. It needs no API key.
type DuckDuckGo struct {
	endpoint string
	fetcher  *Fetcher
}

// NewDuckDuckGo creates a DuckDuckGo backend. An empty endpoint uses
// DefaultDuckDuckGoURL.
func NewDuckDuckGo(endpoint string, fetcher *Fetcher) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoURL
	}
	return &DuckDuckGo{endpoint: endpoint, fetcher: fetcher}
}

// Search fetches the results page and extracts up to topN hits.
func (d *DuckDuckGo) Search(ctx context.Context, query string, topN int) (types.Document, error) {
	endpoint := d.endpoint + "?q=" + url.QueryEscape(query)

	header := http.Header{}
	header.Set("Accept", "text/html")
	resp, err := d.fetcher.do(ctx, d.fetcher.api, endpoint, header)
	if err != nil {
		return types.Document{}, fmt.Errorf("HTTP error for duckduckgo search: %w", err)
	}

	results, err := parseDuckDuckGo(resp.Body)
	if err != nil {
		return types.Document{}, err
	}
	return ResultsPage(query, topResults(results, topN)), nil
}

// Fetch retrieves a page directly.
func (d *DuckDuckGo) Fetch(ctx context.Context, rawURL string) (types.Document, error) {
	return d.fetcher.Fetch(ctx, rawURL)
}

func parseDuckDuckGo(body string) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	var results []Result
	seen := make(map[string]bool)
	doc.Find("div.result, div.results_links").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		target := realURL(href)
		title := strings.Join(strings.Fields(link.Text()), " ")
		if target == "" || title == "" || seen[target] {
			return
		}
		seen[target] = true
		results = append(results, Result{
			Title:   title,
			URL:     target,
			Snippet: strings.Join(strings.Fields(s.Find(".result__snippet").First().Text()), " "),
		})
	})
	return results, nil
}

// realURL unwraps DuckDuckGo's /l/?uddg= redirect links.
func realURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}

var snippetPolicy = bluemonday.StrictPolicy()

// stripTags removes markup from provider snippets.
func stripTags(s string) string {
	return html.UnescapeString(snippetPolicy.Sanitize(s))
}
