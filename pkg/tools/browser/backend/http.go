package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/entrhq/pagewise/pkg/logging"
	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/tools/browser/normalize"
	"github.com/entrhq/pagewise/pkg/types"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	maxRedirects = 10
	maxLoggedURL = 256
)

// HTTPOptions configures the HTTP client shared by all backends.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64

	// AllowHosts and DenyHosts restrict page fetches. Search API calls are not
	// subject to them.
	AllowHosts []string
	DenyHosts  []string
}

// DefaultHTTPOptions returns the stock client settings.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		UserAgent:    DefaultUserAgent,
		Timeout:      30 * time.Second,
		MaxBodyBytes: 5 << 20,
	}
}

// Fetcher performs HTTP requests for backends and turns fetched pages into
// documents.
type Fetcher struct {
	opts   HTTPOptions
	policy *HostPolicy
	api    *http.Client
	pages  *http.Client
	logger *logging.Logger
}

// NewFetcher builds a Fetcher. A nil client uses a fresh http.Client; its
// transport is shared between API and page requests.
func NewFetcher(opts HTTPOptions, client *http.Client) (*Fetcher, error) {
	d := DefaultHTTPOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = d.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = d.MaxBodyBytes
	}

	policy, err := NewHostPolicy(opts.AllowHosts, opts.DenyHosts)
	if err != nil {
		return nil, err
	}

	var transport http.RoundTripper
	if client != nil {
		transport = client.Transport
	}

	f := &Fetcher{opts: opts, policy: policy, logger: logging.Discard()}
	f.api = &http.Client{Transport: transport, Timeout: opts.Timeout}
	f.pages = &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return policy.Check(req.URL.Hostname())
		},
	}
	return f, nil
}

// response is a fully read HTTP response body, decoded to UTF-8.
type response struct {
	Body        string
	ContentType string
	FinalURL    string
}

// getJSON issues an API request and returns the raw body.
func (f *Fetcher) getJSON(ctx context.Context, rawURL string, header http.Header) (*response, error) {
	if header == nil {
		header = http.Header{}
	}
	header.Set("Accept", "application/json")
	return f.do(ctx, f.api, rawURL, header)
}

// getPage fetches a web page, enforcing the host policy.
func (f *Fetcher) getPage(ctx context.Context, rawURL string) (*response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if err := f.policy.Check(u.Hostname()); err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	return f.do(ctx, f.pages, rawURL, header)
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, rawURL string, header http.Header) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	f.logger.Debugf("GET %s", toolerr.MaybeTruncate(rawURL, maxLoggedURL))
	resp, err := client.Do(req)
	if err != nil {
		f.logger.Warnf("GET %s failed: %v", toolerr.MaybeTruncate(rawURL, maxLoggedURL), err)
		var pv *PolicyViolation
		if errors.As(err, &pv) {
			return nil, pv
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d %s returned for %s", resp.StatusCode, http.StatusText(resp.StatusCode), rawURL)
	}

	contentType := resp.Header.Get("Content-Type")
	limited := io.LimitReader(resp.Body, f.opts.MaxBodyBytes)
	reader, err := charset.NewReader(limited, contentType)
	if err != nil {
		reader = limited
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &response{
		Body:        string(body),
		ContentType: contentType,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// Fetch retrieves rawURL and normalizes it. A "view-source:" URL returns the
// raw markup as plain text instead, and text/plain bodies skip HTML processing.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (types.Document, error) {
	target, viewSource := strings.CutPrefix(rawURL, normalize.ViewSourcePrefix)

	resp, err := f.getPage(ctx, target)
	if err != nil {
		return types.Document{}, err
	}

	if viewSource {
		return normalize.Plain(resp.Body, rawURL, rawURL, true), nil
	}
	if isPlainText(resp.ContentType) {
		return normalize.Plain(resp.Body, resp.FinalURL, "", true), nil
	}
	return normalize.Normalize(resp.Body, resp.FinalURL, "", true), nil
}

func isPlainText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/plain"
}
