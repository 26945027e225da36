package browser

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/pagewise/pkg/logging"
	"github.com/entrhq/pagewise/pkg/metrics"
	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/tools/browser/backend"
	"github.com/entrhq/pagewise/pkg/tools/browser/find"
	"github.com/entrhq/pagewise/pkg/tools/browser/normalize"
	"github.com/entrhq/pagewise/pkg/tools/browser/pagination"
	"github.com/entrhq/pagewise/pkg/tools/browser/state"
	"github.com/entrhq/pagewise/pkg/types"
)

const (
	// DefaultViewTokens is the token budget of one rendered window.
	DefaultViewTokens = 1024

	// MaxTopN bounds the number of search results a caller may request.
	MaxTopN = 10

	// snippetLead is how many lines above a find match the viewport starts.
	snippetLead = 4

	maxURLChars = 256
)

// Options configures a Browser. Zero values select the defaults.
type Options struct {
	ViewTokens int
	CacheSize  int
	Find       find.Options

	// Counter measures token budgets. Nil falls back to a character estimate.
	Counter pagination.TokenCounter

	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Browser runs the search, open and find operations against one browsing
// session. Operations are serialized; a Browser is safe for concurrent use.
type Browser struct {
	mu      sync.Mutex
	backend backend.Backend
	session *state.Session

	viewTokens int
	findOpts   find.Options
	counter    pagination.TokenCounter
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// New creates a Browser with an empty session.
func New(b backend.Backend, opts Options) *Browser {
	if opts.ViewTokens <= 0 {
		opts.ViewTokens = DefaultViewTokens
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Browser{
		backend:    backend.Instrumented(b, opts.Metrics),
		session:    state.New(state.WithCapacity(opts.CacheSize)),
		viewTokens: opts.ViewTokens,
		findOpts:   opts.Find,
		counter:    opts.Counter,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// OpenRequest holds the arguments of Open.
type OpenRequest struct {
	// Link is a link id of the page (a decimal string), a URL to open
	// directly, or empty to stay on the page. Negative ids count as empty.
	Link string

	// PageID selects the page whose links Link refers to. Empty means the
	// current page.
	PageID string

	// Loc is the first line to show. Negative means the top of the page, or
	// just above the match when following a find result.
	Loc int

	// NumLines limits the window. Non-positive sizes it by token budget.
	NumLines int

	// ViewSource fetches the raw source of the target instead.
	ViewSource bool
}

// FindRequest holds the arguments of Find. Exactly one of Pattern and Regex
// must be set.
type FindRequest struct {
	Pattern *string
	Regex   *string
	PageID  string
}

// Search runs query against the backend and starts a fresh session with the
// results page.
func (b *Browser) Search(ctx context.Context, query string, topN int) (out string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.observe("search", time.Now(), &err)

	if strings.TrimSpace(query) == "" {
		return "", toolerr.Usage(toolerr.ErrInvalidArgs, "The `query` argument must not be empty.")
	}
	if topN < 1 || topN > MaxTopN {
		return "", toolerr.Usage(toolerr.ErrInvalidArgs,
			"The `topn` argument must be between 1 and %d, got %d.", MaxTopN, topN)
	}

	doc, err := b.backend.Search(ctx, query, topN)
	if err != nil {
		b.logger.Warnf("search for %q failed: %v", query, err)
		return "", toolerr.Backend(err, "Error during search for `%s`", query)
	}

	snap := b.session.Snapshot()
	b.session.Reset()
	id := b.session.Push(doc)
	b.logger.Debugf("search %q pushed %s (%d links)", query, id, doc.Links.Len())

	out, err = b.render(doc, id, 0, -1)
	if err != nil {
		b.session.Restore(snap)
		b.logger.Debugf("search render failed, session restored: %v", err)
		return "", err
	}
	return out, nil
}

// Open follows a link, opens a URL, or scrolls the current page.
func (b *Browser) Open(ctx context.Context, req OpenRequest) (out string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.observe("open", time.Now(), &err)

	var (
		target  string
		direct  bool
		stay    bool
		snippet *types.Snippet
		page    types.Document
		pageID  string
	)

	link, isLinkID := parseLink(req.Link)

	if link != "" && !isLinkID {
		target, direct = link, true
	} else {
		page, pageID, err = b.session.Get(req.PageID)
		if err != nil {
			return "", err
		}
		if link != "" {
			u, ok := page.Links.Lookup(link)
			if !ok || u == "" {
				return "", toolerr.Usage(toolerr.ErrInvalidLink, "Invalid link id `%s`.", link).
					WithHint("Use an id from a `⟦id†...⟧` marker on the page.")
			}
			target = u
			if s, ok := page.Snippet(link); ok {
				snippet = &s
			}
		} else {
			stay = !req.ViewSource
			target = page.URL
		}
	}

	if req.ViewSource {
		target = normalize.ViewSourcePrefix + target
		snippet = nil
	}

	loc := req.Loc
	if loc < 0 {
		loc = 0
		if snippet != nil && snippet.LineIndex != nil {
			loc = max(0, *snippet.LineIndex-snippetLead)
		}
	}

	if stay {
		// Scrolling the current page pushes nothing, so there is nothing to undo.
		return b.render(page, pageID, loc, req.NumLines)
	}

	doc, err := b.fetch(ctx, target, direct)
	if err != nil {
		return "", err
	}

	id := b.session.Push(doc)
	b.logger.Debugf("open %s pushed %s", toolerr.MaybeTruncate(target, maxURLChars), id)

	out, err = b.render(doc, id, loc, req.NumLines)
	if err != nil {
		b.session.Pop()
		b.logger.Debugf("open render failed, popped %s: %v", id, err)
		return "", err
	}
	return out, nil
}

// Find searches a page and pushes the find-result page.
func (b *Browser) Find(ctx context.Context, req FindRequest) (out string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.observe("find", time.Now(), &err)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, _, err := b.session.Get(req.PageID)
	if err != nil {
		return "", err
	}

	result, err := find.Find(page, find.Query{Pattern: req.Pattern, Regex: req.Regex}, b.findOpts)
	if err != nil {
		return "", err
	}
	if result.ErrorMessage != "" {
		b.logger.Infof("find on %s: %s", page.URL, result.ErrorMessage)
	}

	id := b.session.Push(result)
	b.logger.Debugf("find pushed %s (%d matches)", id, len(result.Matches))

	out, err = b.render(result, id, 0, -1)
	if err != nil {
		b.session.Pop()
		return "", err
	}
	return out, nil
}

// CurrentPageID returns the id of the current page, or "" for an empty session.
func (b *Browser) CurrentPageID() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, err := b.session.Current()
	if err != nil {
		return ""
	}
	return id
}

// fetch returns the document for url, reusing a cached copy unless the caller
// navigated to the URL directly.
func (b *Browser) fetch(ctx context.Context, url string, direct bool) (types.Document, error) {
	if !direct {
		if doc, ok := b.session.GetByURL(url); ok {
			b.logger.Debugf("cache hit for %s", toolerr.MaybeTruncate(url, maxURLChars))
			return doc, nil
		}
	}

	doc, err := b.backend.Fetch(ctx, url)
	if err != nil {
		b.logger.Warnf("fetch %s failed: %v", toolerr.MaybeTruncate(url, maxURLChars), err)
		return types.Document{}, toolerr.Backend(err, "Error fetching URL `%s`", toolerr.MaybeTruncate(url, maxURLChars))
	}
	return doc, nil
}

func (b *Browser) render(doc types.Document, id string, loc, numLines int) (string, error) {
	return pagination.Render(doc, id, loc, numLines, b.viewTokens, b.counter)
}

func (b *Browser) observe(op string, start time.Time, err *error) {
	b.metrics.ObserveOperation(op, start, *err)
	b.metrics.SetPages(b.session.Len())
}

// parseLink classifies an open target. Decimal strings are link ids, negative
// ids mean none, and anything else is a URL.
func parseLink(raw string) (link string, isLinkID bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return raw, false
	case n < 0:
		return "", false
	default:
		return strconv.Itoa(n), true
	}
}
