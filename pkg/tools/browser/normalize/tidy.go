package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/entrhq/pagewise/pkg/types"
)

var (
	hspaceRe     = regexp.MustCompile(`[\t\f\v\p{Zs}]+`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	escapedDotRe = regexp.MustCompile(`(\d)\\\.`)
	bulletOnlyRe = regexp.MustCompile(`^[ \t]*\*$`)
	blockCloseRe = regexp.MustCompile(`(?i)</(p|div|li|tr|h[1-6]|ul|ol|table|section|article|blockquote|pre)\s*>|<br\s*/?>|<hr[^>]*>`)
	strictPolicy = bluemonday.StrictPolicy()
)

// tidy applies the whitespace rules to emitted text: horizontal runs collapse to
// one space (leading indentation is kept), trailing whitespace is trimmed,
// whitespace-only lines are emptied and blank-line runs shrink to one.
func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		rest := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(rest)]
		lines[i] = indent + hspaceRe.ReplaceAllString(rest, " ")
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		switch {
		case trimmed == "":
			out[i] = ""
		case keepTrailing(lines, i, trimmed):
			out[i] = line
		default:
			out[i] = trimmed
		}
	}

	text = strings.Join(out, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = escapedDotRe.ReplaceAllString(text, "$1.")
	return strings.Trim(text, "\n")
}

// keepTrailing reports whether line i must keep its trailing whitespace: empty
// bullets keep their separator, and a line followed by a more deeply indented
// one keeps its shape.
func keepTrailing(lines []string, i int, trimmed string) bool {
	if trimmed == lines[i] {
		return false
	}
	if bulletOnlyRe.MatchString(trimmed) {
		return true
	}
	for _, next := range lines[i+1:] {
		if strings.TrimSpace(next) == "" {
			continue
		}
		return indentOf(next) > indentOf(lines[i])
	}
	return false
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// fallback renders markup without a DOM: block boundaries become newlines, every
// tag is stripped and entities are decoded. The link table stays empty.
func fallback(cleaned, pageURL, title string, showURLHeader bool) (doc types.Document) {
	if title == "" {
		title = Host(pageURL)
	}
	doc = types.Document{URL: pageURL, Title: title}
	defer func() {
		if r := recover(); r != nil {
			doc.Text = withHeader("", pageURL, showURLHeader)
		}
	}()

	s := blockCloseRe.ReplaceAllString(cleaned, "$0\n")
	s = sanitizeRunes(html.UnescapeString(strictPolicy.Sanitize(s)))
	doc.Text = withHeader(tidy(s), pageURL, showURLHeader)
	return doc
}
