// Package backend provides the search and fetch collaborators used by the
// browsing tools: SearxNG, Brave and DuckDuckGo search providers sharing one
// HTTP fetcher for page retrieval.
package backend

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/entrhq/pagewise/pkg/logging"
	"github.com/entrhq/pagewise/pkg/tools/browser/normalize"
	"github.com/entrhq/pagewise/pkg/types"
)

// Backend searches the web and fetches pages as normalized documents.
type Backend interface {
	// Search runs query and returns a results page listing at most topN hits.
	Search(ctx context.Context, query string, topN int) (types.Document, error)

	// Fetch retrieves and normalizes a page. URLs prefixed with
	// normalize.ViewSourcePrefix return the raw source.
	Fetch(ctx context.Context, url string) (types.Document, error)
}

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// ResultsPage renders hits as the synthetic search results document: a list of
// linked titles followed by their snippets, titled with the query.
func ResultsPage(query string, results []Result) types.Document {
	var b strings.Builder
	b.WriteString("<html><body>\n<h1>Search Results</h1>\n<ul>\n")
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, "<li><a href='%s'>%s</a> %s</li>",
			html.EscapeString(r.URL), html.EscapeString(title), html.EscapeString(r.Snippet))
	}
	b.WriteString("\n</ul>\n</body></html>\n")
	return normalize.Normalize(b.String(), "", query, false)
}

// topResults drops hits without a URL and keeps the first n.
func topResults(results []Result, n int) []Result {
	out := make([]Result, 0, min(len(results), max(n, 0)))
	for _, r := range results {
		if len(out) >= n {
			break
		}
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Driver names accepted by New.
const (
	DriverSearxNG    = "searxng"
	DriverBrave      = "brave"
	DriverDuckDuckGo = "duckduckgo"
)

// Config selects and configures a backend.
type Config struct {
	Driver string

	SearxNGURL    string
	BraveAPIKey   string
	BraveURL      string
	DuckDuckGoURL string

	HTTP HTTPOptions

	// Logger receives one entry per outbound request. Nil discards them.
	Logger *logging.Logger

	// Client overrides the HTTP transport, mainly for tests.
	Client *http.Client
}

// New builds the backend named by cfg.Driver. An empty driver means
// DuckDuckGo, which needs no credentials.
func New(cfg Config) (Backend, error) {
	fetcher, err := NewFetcher(cfg.HTTP, cfg.Client)
	if err != nil {
		return nil, err
	}
	if cfg.Logger != nil {
		fetcher.logger = cfg.Logger
	}

	switch strings.ToLower(cfg.Driver) {
	case DriverSearxNG:
		if cfg.SearxNGURL == "" {
			return nil, fmt.Errorf("searxng backend requires a base URL")
		}
		return NewSearxNG(cfg.SearxNGURL, fetcher), nil
	case DriverBrave:
		if cfg.BraveAPIKey == "" {
			return nil, fmt.Errorf("brave backend requires an API key")
		}
		return NewBrave(cfg.BraveAPIKey, cfg.BraveURL, fetcher), nil
	case DriverDuckDuckGo, "":
		return NewDuckDuckGo(cfg.DuckDuckGoURL, fetcher), nil
	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Driver)
	}
}
