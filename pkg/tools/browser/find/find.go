// Package find searches the visible text of a document and builds the
// synthetic find-result document the browsing tools page through.
package find

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/tools/browser/normalize"
	"github.com/entrhq/pagewise/pkg/tools/browser/pagination"
	"github.com/entrhq/pagewise/pkg/types"
)

const (
	DefaultMaxResults   = 50
	DefaultContextLines = 4
	DefaultMatchTimeout = 100 * time.Millisecond
	DefaultScanTimeout  = 2 * time.Second
)

// Query selects what to look for. Exactly one of Pattern and Regex must be set.
type Query struct {
	Pattern *string
	Regex   *string
}

// Literal builds a case-insensitive substring query.
func Literal(pattern string) Query {
	return Query{Pattern: &pattern}
}

// Regexp builds a regular expression query. The expression may be bare or
// wrapped in slashes with trailing flags, e.g. "/foo.*bar/i".
func Regexp(expr string) Query {
	return Query{Regex: &expr}
}

// Options bound a single find call.
type Options struct {
	MaxResults   int
	ContextLines int

	// MatchTimeout limits one regex evaluation against one line.
	MatchTimeout time.Duration

	// ScanTimeout limits the regex scan over the whole document.
	ScanTimeout time.Duration
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		MaxResults:   DefaultMaxResults,
		ContextLines: DefaultContextLines,
		MatchTimeout: DefaultMatchTimeout,
		ScanTimeout:  DefaultScanTimeout,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxResults <= 0 {
		o.MaxResults = d.MaxResults
	}
	if o.ContextLines <= 0 {
		o.ContextLines = d.ContextLines
	}
	if o.MatchTimeout <= 0 {
		o.MatchTimeout = d.MatchTimeout
	}
	if o.ScanTimeout <= 0 {
		o.ScanTimeout = d.ScanTimeout
	}
	return o
}

// matcher reports whether a line matches. A non-nil error aborts the scan.
type matcher func(line string) (bool, error)

// Find scans the de-annotated, wrapped text of doc and returns a find-result
// document whose links and matches point back at doc. A malformed or runaway
// regex is not an error: the result document carries the error text instead.
func Find(doc types.Document, q Query, opts Options) (types.Document, error) {
	if doc.IsFindResult() {
		return types.Document{}, toolerr.Usage(toolerr.ErrFindOnResults,
			"Cannot run `find` on search results page or find results page")
	}
	if (q.Pattern == nil) == (q.Regex == nil) {
		return types.Document{}, toolerr.Usage(toolerr.ErrInvalidArgs,
			"Provide exactly one of `pattern` or `regex`.")
	}
	opts = opts.withDefaults()

	kind, param, urlKey, pattern := "text", "pattern", "literal", ""
	if q.Pattern != nil {
		pattern = strings.ToLower(*q.Pattern)
	} else {
		kind, param, urlKey, pattern = "regex", "regex", "regex", *q.Regex
	}
	if pattern == "" {
		return types.Document{}, toolerr.Usage(toolerr.ErrInvalidArgs,
			"The `%s` argument must not be empty.", param)
	}

	result := types.Document{
		URL:   doc.URL + "/find?" + urlKey + "=" + encodeComponent(pattern),
		Title: fmt.Sprintf("Find results for %s: `%s` in `%s`", kind, pattern, doc.Title),
	}

	var match matcher
	if q.Pattern != nil {
		match = func(line string) (bool, error) {
			return strings.Contains(strings.ToLower(line), pattern), nil
		}
	} else {
		re, err := CompileRegex(pattern, opts.MatchTimeout)
		if err != nil {
			return regexError(result, pattern, err), nil
		}
		deadline := time.Now().Add(opts.ScanTimeout)
		match = func(line string) (bool, error) {
			if time.Now().After(deadline) {
				return false, fmt.Errorf("match time budget of %s exceeded", opts.ScanTimeout)
			}
			return re.MatchString(line)
		}
	}

	lines := strings.Split(StripCitations(pagination.JoinLines(pagination.Lines(doc), false, 0)), "\n")

	var chunks []string
	matches := make(map[string]types.Snippet)
	var links types.LinkTable
	for idx := 0; idx < len(lines); {
		ok, err := match(lines[idx])
		if err != nil {
			return regexError(result, pattern, err), nil
		}
		if !ok {
			idx++
			continue
		}

		id := strconv.Itoa(len(chunks))
		snippet := strings.Join(lines[idx:min(idx+opts.ContextLines, len(lines))], "\n")
		heading := fmt.Sprintf("# %s%s%smatch at L%d%s", normalize.MarkOpen, id, normalize.MarkDagger, idx, normalize.MarkClose)
		chunks = append(chunks, heading+"\n"+snippet)
		links.Add(id, doc.URL)
		matches[id] = types.Snippet{
			SourceURL: doc.URL,
			Text:      snippet,
			Label:     "#" + id,
			LineIndex: types.LineAt(idx),
		}
		if len(chunks) == opts.MaxResults {
			break
		}
		idx += opts.ContextLines
	}

	result.Links = links
	result.Matches = matches
	if len(chunks) == 0 {
		result.Text = fmt.Sprintf("No `find` results for pattern: `%s`", pattern)
	} else {
		result.Text = strings.Join(chunks, "\n\n")
	}
	return result, nil
}

func regexError(result types.Document, pattern string, err error) types.Document {
	result.Text = fmt.Sprintf("Regex error for regex `%s`: %s", pattern, err)
	result.ErrorMessage = err.Error()
	result.Links = types.LinkTable{}
	result.Matches = map[string]types.Snippet{}
	return result
}

// encodeComponent percent-encodes s for use in a query string, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

var (
	partialInitialRe = regexp.MustCompile(`^[^⟦⟧]*⟧`)
	partialFinalRe   = regexp.MustCompile(`⟦\d*(?:†([^†⟧]*)(?:†[^†⟧]*)?)?$`)
	fullMarkerRe     = regexp.MustCompile(`⟦\d+†([^†⟧]+)(?:†[^†⟧]+)?⟧`)
)

// StripCitations replaces every citation marker in text with its display text.
// A marker cut off at the start or end of text is reduced the same way.
func StripCitations(text string) string {
	text = partialInitialRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := strings.Split(strings.TrimSuffix(m, normalize.MarkClose), normalize.MarkDagger)
		if len(parts) > 1 && strings.Trim(parts[0], "0123456789") == "" {
			return parts[1]
		}
		return parts[0]
	})
	text = partialFinalRe.ReplaceAllString(text, "$1")
	return fullMarkerRe.ReplaceAllString(text, "$1")
}

// CompileRegex compiles a find expression. "/body/flags" takes the flags i, m,
// s, x and u; anything else is compiled as-is. timeout bounds each match.
func CompileRegex(expr string, timeout time.Duration) (*regexp2.Regexp, error) {
	body, opts := expr, regexp2.None
	if strings.HasPrefix(expr, "/") {
		end := strings.LastIndex(expr, "/")
		if end == 0 {
			return nil, errors.New("no ending delimiter '/' found")
		}
		body = expr[1:end]
		for _, f := range expr[end+1:] {
			switch f {
			case 'i':
				opts |= regexp2.IgnoreCase
			case 'm':
				opts |= regexp2.Multiline
			case 's':
				opts |= regexp2.Singleline
			case 'x':
				opts |= regexp2.IgnorePatternWhitespace
			case 'u':
			default:
				return nil, fmt.Errorf("unknown modifier '%c'", f)
			}
		}
	}
	re, err := regexp2.Compile(body, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = timeout
	return re, nil
}
