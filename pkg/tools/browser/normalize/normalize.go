// Package normalize converts fetched HTML into the annotated plain text the
// browsing tools page through.
//
// Links are rewritten inline into citation markers of the form ⟦id†text⟧ (same
// host) or ⟦id†text†host⟧ (other host), and every numbered id is recorded in the
// document's link table. Images become [Image i: alt] placeholders, headings
// become markdown prefixes and list items become "  * " bullets.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/entrhq/pagewise/pkg/types"
)

// Citation marker glyphs. Source content never contains them after Normalize.
const (
	MarkOpen   = "⟦"
	MarkClose  = "⟧"
	MarkDagger = "†"
)

// ViewSourcePrefix marks a URL whose raw source should be shown instead of the
// normalized page.
const ViewSourcePrefix = "view-source:"

var (
	supRe    = regexp.MustCompile(`(?i)<sup(\s[^>]*)?>([\p{L}\p{N}_\-]+)</sup>`)
	subRe    = regexp.MustCompile(`(?i)<sub(\s[^>]*)?>([\p{L}\p{N}_\-]+)</sub>`)
	tagRunRe = regexp.MustCompile(`(?:<[^>]*>)+`)

	glyphReplacer = strings.NewReplacer(
		MarkOpen, "〚",
		MarkClose, "〛",
		MarkDagger, "‡",
		"◼", "◾",
		"\u200b", "",
	)
)

// Normalize turns an HTML page into a Document. title, when non-empty, overrides
// the page's <title>; otherwise the <title> element and then the URL's host are
// used. With showURLHeader the text is prefixed with "\nURL: {url}\n".
//
// Normalize never fails: markup the parser cannot handle degrades to a
// tag-stripped plain-text rendering with an empty link table.
func Normalize(rawHTML, pageURL, title string, showURLHeader bool) (doc types.Document) {
	cleaned := preprocess(rawHTML)

	defer func() {
		if r := recover(); r != nil {
			doc = fallback(cleaned, pageURL, title, showURLHeader)
		}
	}()

	root, err := html.Parse(strings.NewReader(cleaned))
	if err != nil {
		return fallback(cleaned, pageURL, title, showURLHeader)
	}

	finalTitle := title
	if finalTitle == "" {
		finalTitle = findTitle(root)
	}
	if finalTitle == "" {
		finalTitle = Host(pageURL)
	}

	e := newEmitter(pageURL)
	e.walk(root)

	return types.Document{
		URL:   pageURL,
		Text:  withHeader(tidy(e.String()), pageURL, showURLHeader),
		Title: finalTitle,
		Links: e.links,
	}
}

// Plain wraps already-textual content (plain text bodies, page sources) in a
// Document without any link rewriting.
func Plain(text, pageURL, title string, showURLHeader bool) types.Document {
	if title == "" {
		title = Host(pageURL)
	}
	body := strings.ReplaceAll(sanitizeRunes(text), "\r\n", "\n")
	return types.Document{
		URL:   pageURL,
		Text:  withHeader(strings.Trim(body, "\n"), pageURL, showURLHeader),
		Title: title,
	}
}

func withHeader(text, pageURL string, show bool) string {
	if !show {
		return text
	}
	return fmt.Sprintf("\nURL: %s\n%s", pageURL, text)
}

// preprocess runs the string-level cleanup that has to happen before parsing:
// dropping astral-plane code points, reserving the citation glyphs, promoting
// simple sup/sub content and keeping words apart once tags disappear.
func preprocess(raw string) string {
	s := sanitizeRunes(raw)
	s = supRe.ReplaceAllString(s, "^{$2}")
	s = subRe.ReplaceAllString(s, "_{$2}")
	return separateTags(s)
}

// sanitizeRunes drops astral-plane code points and remaps the citation glyphs.
// It runs on the raw markup and again on decoded text, since entities such as
// &dagger; only become glyphs once parsed.
func sanitizeRunes(raw string) string {
	raw = strings.ToValidUTF8(raw, "�")
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r > 0xFFFF {
			continue
		}
		b.WriteRune(r)
	}
	return glyphReplacer.Replace(b.String())
}

// separateTags inserts a space before any run of tags that sits between two
// word characters, so "foo<br>bar" does not become "foobar".
func separateTags(s string) string {
	locs := tagRunRe.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(locs))
	prev := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		b.WriteString(s[prev:start])
		if isWordBefore(s, start) && isWordAfter(s, end) {
			b.WriteByte(' ')
		}
		b.WriteString(s[start:end])
		prev = end
	}
	b.WriteString(s[prev:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func isWordAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return mergeWhitespace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
