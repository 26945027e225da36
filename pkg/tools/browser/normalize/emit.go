package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/entrhq/pagewise/pkg/types"
)

// skipped elements contribute nothing to the text.
var skipped = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "math": true, "svg": true, "iframe": true,
	"object": true, "embed": true, "canvas": true,
}

// block elements start on a fresh line and end it.
var block = map[string]bool{
	"div": true, "section": true, "article": true, "header": true,
	"footer": true, "nav": true, "main": true, "aside": true,
	"form": true, "fieldset": true, "tr": true, "dt": true, "dd": true,
	"figcaption": true, "address": true, "details": true, "summary": true,
	"caption": true, "center": true, "legend": true,
}

// paragraph elements are followed by a blank line.
var paragraph = map[string]bool{
	"p": true, "pre": true, "blockquote": true, "table": true,
	"dl": true, "figure": true,
}

// emitter walks a parsed tree once, writing normalized text and numbering links
// as it goes. Only anchors that end up as markers in the text get an id.
type emitter struct {
	b strings.Builder

	pageURL string
	host    string
	links   types.LinkTable
	byURL   map[string]string

	images    int
	preDepth  int
	listDepth int
}

func newEmitter(pageURL string) *emitter {
	return &emitter{
		pageURL: pageURL,
		host:    Host(pageURL),
		byURL:   make(map[string]string),
	}
}

func (e *emitter) String() string {
	return e.b.String()
}

func (e *emitter) atLineStart() bool {
	s := e.b.String()
	return s == "" || s[len(s)-1] == '\n'
}

func (e *emitter) ensureLine() {
	if !e.atLineStart() {
		e.b.WriteByte('\n')
	}
}

func (e *emitter) blankLine() {
	s := e.b.String()
	switch {
	case s == "":
	case strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		e.b.WriteByte('\n')
	default:
		e.b.WriteString("\n\n")
	}
}

func (e *emitter) text(s string) {
	if e.preDepth == 0 {
		s = strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == '\t' {
				return ' '
			}
			return r
		}, s)
		if e.atLineStart() {
			s = strings.TrimLeftFunc(s, unicode.IsSpace)
		}
	}
	e.b.WriteString(s)
}

func (e *emitter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		e.text(sanitizeRunes(n.Data))
		return
	case html.ElementNode:
		e.element(n)
		return
	case html.DocumentNode:
		e.children(n)
	}
}

func (e *emitter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c)
	}
}

func (e *emitter) element(n *html.Node) {
	tag := n.Data
	switch {
	case skipped[tag]:
		return
	case tag == "a":
		if !e.anchor(n) {
			e.children(n)
		}
	case tag == "img":
		e.image(n)
	case tag == "br":
		e.b.WriteByte('\n')
	case tag == "hr":
		e.blankLine()
	case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
		e.ensureLine()
		e.b.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " ")
		e.children(n)
		e.blankLine()
	case tag == "li":
		e.ensureLine()
		e.b.WriteString("  * ")
		e.children(n)
		e.ensureLine()
	case tag == "ul" || tag == "ol":
		e.ensureLine()
		e.listDepth++
		e.children(n)
		e.listDepth--
		if e.listDepth == 0 {
			e.blankLine()
		} else {
			e.ensureLine()
		}
	case tag == "td" || tag == "th":
		e.children(n)
		e.text(" ")
	case tag == "pre":
		e.ensureLine()
		e.preDepth++
		e.children(n)
		e.preDepth--
		e.blankLine()
	case paragraph[tag]:
		e.ensureLine()
		e.children(n)
		e.blankLine()
	case block[tag]:
		e.ensureLine()
		e.children(n)
		e.ensureLine()
	default:
		e.children(n)
	}
}

// anchor renders a link as a citation marker. It reports false when the anchor
// is not a numbered link, in which case its children render normally.
func (e *emitter) anchor(n *html.Node) bool {
	href, ok := attr(n, "href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || isSkippedScheme(href) {
		return false
	}

	raw := textContent(n)
	label := mergeWhitespace(raw)
	if label == "" {
		return false
	}

	// Whitespace inside the anchor moves outside the marker.
	if startsWithSpace(raw) {
		e.text(" ")
	}
	defer func() {
		if endsWithSpace(raw) {
			e.text(" ")
		}
	}()

	if strings.HasPrefix(href, "#") {
		e.text(label)
		return true
	}
	resolved, ok := Resolve(e.pageURL, href)
	if !ok {
		e.text(label)
		return true
	}
	linkHost := Host(resolved)
	id := e.linkID(rewriteArxiv(resolved))

	if linkHost == e.host {
		e.text(fmt.Sprintf("%s%s%s%s%s", MarkOpen, id, MarkDagger, label, MarkClose))
	} else {
		e.text(fmt.Sprintf("%s%s%s%s%s%s%s", MarkOpen, id, MarkDagger, label, MarkDagger, linkHost, MarkClose))
	}
	return true
}

func (e *emitter) linkID(target string) string {
	if id, ok := e.byURL[target]; ok {
		return id
	}
	id := strconv.Itoa(e.links.Len())
	e.byURL[target] = id
	e.links.Add(id, target)
	return id
}

func (e *emitter) image(n *html.Node) {
	label := fmt.Sprintf("[Image %d]", e.images)
	e.images++
	for _, key := range []string{"alt", "title"} {
		if v, ok := attr(n, key); ok {
			if v = mergeWhitespace(sanitizeRunes(v)); v != "" {
				label = fmt.Sprintf("[Image %d: %s]", e.images-1, v)
				break
			}
		}
	}
	e.text(label)
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// textContent concatenates the visible text beneath n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(sanitizeRunes(n.Data))
			return
		}
		if n.Type == html.ElementNode && skipped[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

// mergeWhitespace collapses every whitespace run to one space and trims the ends.
func mergeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func startsWithSpace(s string) bool {
	return s != "" && s != strings.TrimLeftFunc(s, unicode.IsSpace)
}

func endsWithSpace(s string) bool {
	return s != "" && s != strings.TrimRightFunc(s, unicode.IsSpace)
}
