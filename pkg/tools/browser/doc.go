// Package browser provides text-mode web browsing for LLM agents.
//
// A Browser keeps one browsing session: a stack of pages, each addressable by
// a page id such as "p_a000". Three operations drive it:
//
//   - Search runs a query through the backend and starts a fresh session with
//     the results page.
//   - Open follows a numbered link of a page, opens a URL directly, or shows
//     the current page again at another line to scroll.
//   - Find searches a page's visible text and pushes a page of matches that
//     can itself be opened by match id.
//
// Every operation returns a window of the page rendered as numbered lines,
// sized to a token budget:
//
//	[p_a001] Example Domain (https://example.com/)
//	**viewing lines [0 - 3] of 3**
//
//	L0:
//	L1: URL: https://example.com/
//	L2: # Example Domain
//	L3: ⟦0†More information...†www.iana.org⟧
//
// Links are written inline as citation markers, ⟦id†text⟧ for links to the
// same host and ⟦id†text†host⟧ otherwise. The id is what Open takes.
//
// # Failure handling
//
// Errors are *toolerr.Error values. Usage errors describe a caller mistake and
// usually carry a hint; backend errors wrap a failed search or fetch. When an
// operation fails after it pushed a page, the push is undone so the session
// is left as it was before the call.
//
// # Tools
//
// ToolRegistry exposes a Browser as the browser_search, browser_open and
// browser_find tools, which take JSON arguments.
package browser
