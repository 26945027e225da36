// Package state holds the browsing session: a cache of rendered documents keyed
// by page id, plus the history stack whose top is the current page.
package state

import (
	"maps"
	"slices"
	"strconv"

	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/types"
)

const (
	// DefaultCapacity bounds how many documents a session caches.
	DefaultCapacity = 256

	// IDPrefix starts every page id.
	IDPrefix = "p_"

	// idOffset makes the first id "a000" rather than "0000".
	idOffset = 10 * 36 * 36 * 36
)

// Session tracks visited documents. It is not safe for concurrent use; callers
// serialize operations against one session.
//
// Documents stay cached after they leave the history stack so later link
// follows to the same URL can reuse them. The cache is bounded: once it holds
// more than its capacity, the oldest documents not on the stack are evicted.
type Session struct {
	docs     map[string]types.Document
	order    []string
	history  []string
	byURL    map[string]string
	seq      int
	capacity int
}

// Option configures a Session.
type Option func(*Session)

// WithCapacity sets the cache bound. Values below 1 keep the default.
func WithCapacity(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Push stores doc under a fresh id, makes it the current page and returns the id.
func (s *Session) Push(doc types.Document) string {
	id := IDPrefix + strconv.FormatInt(int64(idOffset+s.seq), 36)
	s.seq++

	s.docs[id] = doc
	s.order = append(s.order, id)
	s.history = append(s.history, id)
	if doc.URL != "" {
		s.byURL[doc.URL] = id
	}
	s.evict()
	return id
}

// Current returns the id at the top of the history stack.
func (s *Session) Current() (string, error) {
	if len(s.history) == 0 {
		return "", toolerr.Usage(toolerr.ErrEmptySession, "No pages to access!").
			WithHint("Run `browser_search` to obtain a `page_id`.")
	}
	return s.history[len(s.history)-1], nil
}

// Get returns the document cached under id together with the resolved id. An
// empty id means the current page.
func (s *Session) Get(id string) (types.Document, string, error) {
	if id == "" {
		cur, err := s.Current()
		if err != nil {
			return types.Document{}, "", err
		}
		id = cur
	}
	doc, ok := s.docs[id]
	if !ok {
		return types.Document{}, "", toolerr.Usage(toolerr.ErrUnknownPage,
			"Page `%s` is not available in the current browser session.", id).
			WithHint("Use a `page_id` provided in the latest tool response.")
	}
	return doc, id, nil
}

// GetByURL looks up a cached document by URL.
func (s *Session) GetByURL(url string) (types.Document, bool) {
	id, ok := s.byURL[url]
	if !ok {
		return types.Document{}, false
	}
	doc, ok := s.docs[id]
	return doc, ok
}

// Pop removes the current page from the history stack and drops its URL
// mapping. The document itself stays cached under its id.
func (s *Session) Pop() {
	if len(s.history) == 0 {
		return
	}
	id := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	if doc, ok := s.docs[id]; ok && doc.URL != "" && s.byURL[doc.URL] == id {
		delete(s.byURL, doc.URL)
	}
}

// Reset clears the session, including the id sequence.
func (s *Session) Reset() {
	s.docs = make(map[string]types.Document)
	s.order = nil
	s.history = nil
	s.byURL = make(map[string]string)
	s.seq = 0
}

// Len returns the depth of the history stack.
func (s *Session) Len() int {
	return len(s.history)
}

// Cached returns how many documents the session holds.
func (s *Session) Cached() int {
	return len(s.docs)
}

// History returns the page ids on the stack, oldest first.
func (s *Session) History() []string {
	return slices.Clone(s.history)
}

func (s *Session) evict() {
	if len(s.docs) <= s.capacity {
		return
	}
	onStack := make(map[string]bool, len(s.history))
	for _, id := range s.history {
		onStack[id] = true
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if len(s.docs) > s.capacity && !onStack[id] {
			if u := s.docs[id].URL; u != "" && s.byURL[u] == id {
				delete(s.byURL, u)
			}
			delete(s.docs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Snapshot captures the session so a failed operation can be undone.
type Snapshot struct {
	docs    map[string]types.Document
	order   []string
	history []string
	byURL   map[string]string
	seq     int
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		docs:    maps.Clone(s.docs),
		order:   slices.Clone(s.order),
		history: slices.Clone(s.history),
		byURL:   maps.Clone(s.byURL),
		seq:     s.seq,
	}
}

// Restore puts the session back to snap. A snapshot is restored at most once.
func (s *Session) Restore(snap Snapshot) {
	s.docs = snap.docs
	s.order = snap.order
	s.history = snap.history
	s.byURL = snap.byURL
	s.seq = snap.seq
	if s.docs == nil {
		s.docs = make(map[string]types.Document)
	}
	if s.byURL == nil {
		s.byURL = make(map[string]string)
	}
}
