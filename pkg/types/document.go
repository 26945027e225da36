package types

import "strconv"

// Snippet is a block of context captured by an in-page find. It is attached to
// the synthetic find-result document under the match's citation id.
type Snippet struct {
	// SourceURL is the URL of the document the match was found in.
	SourceURL string

	// Text is the matched context block (the match line plus following lines).
	Text string

	// Label is the human-readable match label, e.g. "#3".
	Label string

	// LineIndex is the 0-based offset of the match into the wrapped source text.
	// It seeds the viewport when the snippet's link is opened. Nil when unknown.
	LineIndex *int
}

// LineAt returns a pointer to i, for populating Snippet.LineIndex.
func LineAt(i int) *int {
	return &i
}

// LinkTable maps citation ids ("0", "1", ...) to URLs, preserving insertion order.
// The zero value is an empty table ready to use.
type LinkTable struct {
	ids  []string
	urls map[string]string
}

// NewLinkTable builds a table from urls, assigning ids "0".."n-1" in order.
func NewLinkTable(urls ...string) LinkTable {
	var t LinkTable
	for i, u := range urls {
		t.Add(strconv.Itoa(i), u)
	}
	return t
}

// Add records url under id. Re-adding an existing id replaces its URL in place.
func (t *LinkTable) Add(id, url string) {
	if t.urls == nil {
		t.urls = make(map[string]string)
	}
	if _, exists := t.urls[id]; !exists {
		t.ids = append(t.ids, id)
	}
	t.urls[id] = url
}

// Lookup returns the URL registered under id.
func (t LinkTable) Lookup(id string) (string, bool) {
	u, ok := t.urls[id]
	return u, ok
}

// Len returns the number of links in the table.
func (t LinkTable) Len() int {
	return len(t.ids)
}

// IDs returns the link ids in insertion order.
func (t LinkTable) IDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

// Map returns a copy of the table as a plain map.
func (t LinkTable) Map() map[string]string {
	out := make(map[string]string, len(t.ids))
	for _, id := range t.ids {
		out[id] = t.urls[id]
	}
	return out
}

// Document is a normalized page as seen by the browsing tools. Documents are
// treated as immutable values once constructed.
type Document struct {
	// URL is the canonical address of the document. Empty for synthetic pages
	// such as search results.
	URL string

	// Text is the normalized body, already containing inline citation markers.
	Text string

	// Title is the display title of the document.
	Title string

	// Links maps citation ids referenced in Text to their target URLs.
	Links LinkTable

	// Matches is non-nil only on find-result documents. An empty non-nil map
	// still marks the document as a find result.
	Matches map[string]Snippet

	// ErrorMessage carries a backend-provided error description, if any.
	ErrorMessage string
}

// IsFindResult reports whether the document was produced by an in-page find.
func (d Document) IsFindResult() bool {
	return d.Matches != nil
}

// Snippet returns the match snippet registered under id, if any.
func (d Document) Snippet(id string) (Snippet, bool) {
	if d.Matches == nil {
		return Snippet{}, false
	}
	s, ok := d.Matches[id]
	return s, ok
}
