package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagewise/pkg/metrics"
	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/tools/browser/backend"
	"github.com/entrhq/pagewise/pkg/tools/browser/normalize"
	"github.com/entrhq/pagewise/pkg/types"
)

type fakeBackend struct {
	results   []backend.Result
	pages     map[string]types.Document
	searchErr error

	searches []string
	fetches  []string
}

func (f *fakeBackend) Search(_ context.Context, query string, topN int) (types.Document, error) {
	f.searches = append(f.searches, query)
	if f.searchErr != nil {
		return types.Document{}, f.searchErr
	}
	return backend.ResultsPage(query, f.results[:min(topN, len(f.results))]), nil
}

func (f *fakeBackend) Fetch(_ context.Context, url string) (types.Document, error) {
	f.fetches = append(f.fetches, url)
	doc, ok := f.pages[url]
	if !ok {
		return types.Document{}, fmt.Errorf("HTTP 404 Not Found returned for %s", url)
	}
	return doc, nil
}

func numberedText(n int, special map[int]string) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
		if s, ok := special[i]; ok {
			lines[i] = s
		}
	}
	return strings.Join(lines, "\n")
}

func newTestBrowser(t *testing.T) (*Browser, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{
		results: []backend.Result{
			{Title: "Go", URL: "https://go.dev/", Snippet: "The Go site"},
			{Title: "Pkg", URL: "https://pkg.go.dev/", Snippet: "Packages"},
		},
		pages: map[string]types.Document{
			"https://go.dev/": normalize.Normalize(
				`<html><head><title>Go Home</title></head><body><h1>Go</h1><p>Read the <a href="/doc/">docs</a>.</p></body></html>`,
				"https://go.dev/", "", true),
			"https://long.example/": {
				URL:   "https://long.example/",
				Title: "Long",
				Text:  numberedText(20, map[int]string{10: "the needle is here"}),
			},
			"https://three.example/": {
				URL:   "https://three.example/",
				Title: "Three",
				Text:  "alpha\nbeta\ngamma",
			},
		},
	}
	return New(fb, Options{}), fb
}

func TestSearchRendersResultsPage(t *testing.T) {
	b, fb := newTestBrowser(t)

	out, err := b.Search(context.Background(), "golang", 10)
	require.NoError(t, err)

	want := "[p_a000] golang\n" +
		"**viewing lines [0 - 3] of 3**\n\n" +
		"L0: # Search Results\n" +
		"L1: \n" +
		"L2:   * ⟦0†Go†go.dev⟧ The Go site\n" +
		"L3:   * ⟦1†Pkg†pkg.go.dev⟧ Packages"
	assert.Equal(t, want, out)
	assert.Equal(t, []string{"golang"}, fb.searches)
	assert.Equal(t, "p_a000", b.CurrentPageID())
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		topN  int
	}{
		{"empty query", "   ", 5},
		{"topn too small", "go", 0},
		{"topn too large", "go", 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fb := newTestBrowser(t)
			_, err := b.Search(context.Background(), tt.query, tt.topN)
			require.Error(t, err)
			assert.True(t, toolerr.IsKind(err, toolerr.KindUsage))
			assert.ErrorIs(t, err, toolerr.ErrInvalidArgs)
			assert.Empty(t, fb.searches)
		})
	}
}

func TestSearchBackendErrorKeepsSession(t *testing.T) {
	b, fb := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)
	_, err = b.Open(ctx, OpenRequest{Link: "0", Loc: -1})
	require.NoError(t, err)
	require.Equal(t, "p_a001", b.CurrentPageID())

	fb.searchErr = errors.New("connection refused")
	_, err = b.Search(ctx, "rust", 2)
	require.Error(t, err)
	assert.True(t, toolerr.IsKind(err, toolerr.KindBackend))
	assert.Equal(t, "Error during search for `rust`: connection refused", err.Error())

	assert.Equal(t, "p_a001", b.CurrentPageID())
	assert.Equal(t, 2, b.session.Len())
}

func TestSearchStartsFreshSession(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)
	_, err = b.Open(ctx, OpenRequest{Link: "0", Loc: -1})
	require.NoError(t, err)

	_, err = b.Search(ctx, "again", 1)
	require.NoError(t, err)
	assert.Equal(t, "p_a000", b.CurrentPageID())
	assert.Equal(t, 1, b.session.Len())
	_, ok := b.session.GetByURL("https://go.dev/")
	assert.False(t, ok, "search clears the page cache")
}

func TestOpenFollowsLink(t *testing.T) {
	b, fb := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)

	out, err := b.Open(ctx, OpenRequest{Link: "0", Loc: -1})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "[p_a001] Go Home (https://go.dev/)\n"), out)
	assert.Contains(t, out, "URL: https://go.dev/")
	assert.Contains(t, out, "Read the ⟦0†docs⟧.")
	assert.Equal(t, []string{"https://go.dev/"}, fb.fetches)
}

func TestOpenCachesLinkFollowsButNotDirectURLs(t *testing.T) {
	b, fb := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)

	_, err = b.Open(ctx, OpenRequest{Link: "0", Loc: -1})
	require.NoError(t, err)
	_, err = b.Open(ctx, OpenRequest{Link: "0", PageID: "p_a000", Loc: -1})
	require.NoError(t, err)
	assert.Len(t, fb.fetches, 1, "second follow reuses the cached page")

	_, err = b.Open(ctx, OpenRequest{Link: "https://go.dev/", Loc: -1})
	require.NoError(t, err)
	assert.Len(t, fb.fetches, 2, "direct navigation always fetches")
	assert.Equal(t, "p_a003", b.CurrentPageID())
}

func TestOpenInvalidLink(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)

	_, err = b.Open(ctx, OpenRequest{Link: "7", Loc: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, toolerr.ErrInvalidLink)
	assert.Equal(t, "Invalid link id `7`.", err.Error())
	assert.Equal(t, "p_a000", b.CurrentPageID())
}

func TestOpenUnknownPage(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)

	_, err = b.Open(ctx, OpenRequest{Link: "0", PageID: "p_zzzz", Loc: -1})
	assert.ErrorIs(t, err, toolerr.ErrUnknownPage)
}

func TestOpenNegativeLinkScrollsCurrentPage(t *testing.T) {
	b, fb := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Open(ctx, OpenRequest{Link: "https://long.example/", Loc: -1})
	require.NoError(t, err)

	out, err := b.Open(ctx, OpenRequest{Link: "-1", Loc: 3, NumLines: 2})
	require.NoError(t, err)

	want := "[p_a000] Long (https://long.example/)\n" +
		"**viewing lines [3 - 4] of 19**\n\n" +
		"L3: line 3\n" +
		"L4: line 4"
	assert.Equal(t, want, out)
	assert.Equal(t, 1, b.session.Len(), "scrolling pushes nothing")
	assert.Len(t, fb.fetches, 1)
}

func TestOpenRollsBackOnRenderFailure(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)
	before, beforeLen := b.CurrentPageID(), b.session.Len()

	_, err = b.Open(ctx, OpenRequest{Link: "0", Loc: 10000})
	require.Error(t, err)
	assert.ErrorIs(t, err, toolerr.ErrOutOfRange)
	assert.Contains(t, err.Error(), "Invalid location parameter: `10000`.")

	assert.Equal(t, before, b.CurrentPageID())
	assert.Equal(t, beforeLen, b.session.Len())

	// Re-rendering the current page out of range must not pop it.
	_, err = b.Open(ctx, OpenRequest{Loc: 10000})
	assert.ErrorIs(t, err, toolerr.ErrOutOfRange)
	assert.Equal(t, before, b.CurrentPageID())
	assert.Equal(t, beforeLen, b.session.Len())
}

func TestOpenFetchFailure(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Search(ctx, "golang", 2)
	require.NoError(t, err)

	_, err = b.Open(ctx, OpenRequest{Link: "https://missing.example/", Loc: -1})
	require.Error(t, err)
	assert.True(t, toolerr.IsKind(err, toolerr.KindBackend))
	assert.Equal(t,
		"Error fetching URL `https://missing.example/`: HTTP 404 Not Found returned for https://missing.example/",
		err.Error())
	assert.Equal(t, "p_a000", b.CurrentPageID())
}

func TestOpenViewSource(t *testing.T) {
	b, fb := newTestBrowser(t)
	ctx := context.Background()
	fb.pages["view-source:https://three.example/"] = normalize.Plain("<p>alpha</p>",
		"view-source:https://three.example/", "view-source:https://three.example/", true)

	_, err := b.Open(ctx, OpenRequest{Link: "https://three.example/", Loc: -1})
	require.NoError(t, err)

	out, err := b.Open(ctx, OpenRequest{Loc: -1, ViewSource: true})
	require.NoError(t, err)
	assert.Contains(t, out, "L2: <p>alpha</p>")
	assert.Equal(t, []string{"https://three.example/", "view-source:https://three.example/"}, fb.fetches)
	assert.Equal(t, "p_a001", b.CurrentPageID())
}

func TestOpenFindResultStartsAboveMatch(t *testing.T) {
	b, fb := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Open(ctx, OpenRequest{Link: "https://long.example/", Loc: -1})
	require.NoError(t, err)

	out, err := b.Find(ctx, FindRequest{Pattern: ptr("needle")})
	require.NoError(t, err)
	assert.Contains(t, out, "L0: # ⟦0†match at L10⟧")

	out, err = b.Open(ctx, OpenRequest{Link: "0", Loc: -1})
	require.NoError(t, err)
	assert.Contains(t, out, "**viewing lines [6 - 19] of 19**")
	assert.Contains(t, out, "L6: line 6")
	assert.Contains(t, out, "L10: the needle is here")
	assert.Len(t, fb.fetches, 1, "the source page comes from the cache")
}

func TestFindNoResults(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Open(ctx, OpenRequest{Link: "https://three.example/", Loc: -1})
	require.NoError(t, err)

	out, err := b.Find(ctx, FindRequest{Pattern: ptr("zzz")})
	require.NoError(t, err)

	want := "[p_a001] Find results for text: `zzz` in `Three` (https://three.example//find?literal=zzz)\n" +
		"**viewing lines [0 - 0] of 0**\n\n" +
		"L0: No `find` results for pattern: `zzz`"
	assert.Equal(t, want, out)

	doc, _, err := b.session.Get("")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Links.Len())
}

func TestFindOnFindResultFails(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Open(ctx, OpenRequest{Link: "https://three.example/", Loc: -1})
	require.NoError(t, err)
	_, err = b.Find(ctx, FindRequest{Pattern: ptr("beta")})
	require.NoError(t, err)

	_, err = b.Find(ctx, FindRequest{Pattern: ptr("beta")})
	assert.ErrorIs(t, err, toolerr.ErrFindOnResults)
	assert.Equal(t, 2, b.session.Len())

	_, err = b.Find(ctx, FindRequest{Pattern: ptr("beta"), PageID: "p_a000"})
	assert.NoError(t, err, "the source page can still be searched by id")
}

func TestFindBadRegexIsAPage(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Open(ctx, OpenRequest{Link: "https://three.example/", Loc: -1})
	require.NoError(t, err)

	out, err := b.Find(ctx, FindRequest{Regex: ptr("/unterminated")})
	require.NoError(t, err)
	assert.Contains(t, out, "L0: Regex error for regex `/unterminated`")

	doc, _, err := b.session.Get("")
	require.NoError(t, err)
	assert.Empty(t, doc.Matches)
	assert.True(t, doc.IsFindResult())
}

func TestEmptySession(t *testing.T) {
	b, _ := newTestBrowser(t)
	ctx := context.Background()

	_, err := b.Open(ctx, OpenRequest{Loc: -1})
	assert.ErrorIs(t, err, toolerr.ErrEmptySession)

	var te *toolerr.Error
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Display(), "browser_search")

	_, err = b.Find(ctx, FindRequest{Pattern: ptr("x")})
	assert.ErrorIs(t, err, toolerr.ErrEmptySession)
	assert.Equal(t, "", b.CurrentPageID())
}

func TestBrowserRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	_, fb := newTestBrowser(t)
	b := New(fb, Options{Metrics: m})
	ctx := context.Background()

	_, err = b.Search(ctx, "golang", 2)
	require.NoError(t, err)
	_, err = b.Open(ctx, OpenRequest{Link: "9", Loc: -1})
	require.Error(t, err)
	_, err = b.Open(ctx, OpenRequest{Link: "https://missing.example/", Loc: -1})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `pagewise_operations_total{op="search",outcome="ok"} 1`)
	assert.Contains(t, body, `pagewise_operations_total{op="open",outcome="usage_error"} 1`)
	assert.Contains(t, body, `pagewise_operations_total{op="open",outcome="backend_error"} 1`)
	assert.Contains(t, body, `pagewise_backend_requests_total{kind="fetch",outcome="error"} 1`)
	assert.Contains(t, body, `pagewise_backend_requests_total{kind="search",outcome="ok"} 1`)
	assert.Contains(t, body, `pagewise_session_pages 1`)
}

func TestParseLink(t *testing.T) {
	tests := []struct {
		raw      string
		link     string
		isLinkID bool
	}{
		{"", "", false},
		{"-1", "", false},
		{"3", "3", true},
		{" 03 ", "3", true},
		{"https://go.dev/", "https://go.dev/", false},
	}
	for _, tt := range tests {
		link, isLinkID := parseLink(tt.raw)
		assert.Equal(t, tt.link, link, tt.raw)
		assert.Equal(t, tt.isLinkID, isLinkID, tt.raw)
	}
}

func ptr(s string) *string {
	return &s
}
