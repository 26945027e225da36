// Package pagination wraps document text into fixed-width lines and renders
// token-budgeted, line-numbered windows over it.
package pagination

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/types"
)

const (
	// DefaultWidth is the column width documents are wrapped at.
	DefaultWidth = 80

	// CharsPerToken is the estimate used when no token counter is available.
	CharsPerToken = 4

	// MaxURLChars bounds the URL shown in a render header.
	MaxURLChars = 256
)

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	// PrefixLength returns how many characters of text fit in maxTokens tokens.
	PrefixLength(text string, maxTokens int) (int, error)
}

// WrapLines splits text on newlines and wraps every line at width columns.
// Empty lines are kept. Wrapping never drops characters: joining the pieces of
// a wrapped line reproduces it exactly, and re-wrapping wrapped output at the
// same width is a no-op.
func WrapLines(text string, width int) []string {
	if width <= 0 {
		width = DefaultWidth
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			out = append(out, "")
			continue
		}
		out = append(out, wrapLine([]rune(line), width)...)
	}
	return out
}

func wrapLine(line []rune, width int) []string {
	if len(line) <= width {
		return []string{string(line)}
	}

	var out []string
	var cur []rune
	flush := func() {
		out = append(out, string(cur))
		cur = cur[:0]
	}

	for _, tok := range tokenize(line) {
		for len(tok) > 0 {
			room := width - len(cur)
			if len(tok) <= room {
				cur = append(cur, tok...)
				break
			}
			if unicode.IsSpace(tok[0]) {
				cur = append(cur, tok[:room]...)
				tok = tok[room:]
				flush()
				continue
			}
			if cut := hyphenCut(tok, room); cut > 0 {
				cur = append(cur, tok[:cut]...)
				tok = tok[cut:]
				flush()
				continue
			}
			if len(cur) > 0 {
				flush()
				continue
			}
			cur = append(cur, tok[:width]...)
			tok = tok[width:]
			flush()
		}
	}
	if len(cur) > 0 {
		flush()
	}
	return out
}

// tokenize splits a line into alternating whitespace and non-whitespace runs.
func tokenize(line []rune) [][]rune {
	var toks [][]rune
	start := 0
	for i := 1; i <= len(line); i++ {
		if i == len(line) || unicode.IsSpace(line[i]) != unicode.IsSpace(line[start]) {
			toks = append(toks, line[start:i])
			start = i
		}
	}
	return toks
}

// hyphenCut returns the length of the longest prefix of tok ending in a hyphen
// that fits in room columns, or 0 when there is none.
func hyphenCut(tok []rune, room int) int {
	for i := min(room, len(tok)) - 1; i > 0; i-- {
		if tok[i] == '-' {
			return i + 1
		}
	}
	return 0
}

// JoinLines joins lines with newlines, prefixing each with "L{n}: " counted
// from offset when numbered is set.
func JoinLines(lines []string, numbered bool, offset int) string {
	if !numbered {
		return strings.Join(lines, "\n")
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "L%d: %s", i+offset, line)
	}
	return b.String()
}

// WindowEnd returns the exclusive end line of the window starting at loc. A
// positive numLines is taken literally; otherwise the window grows until the
// numbered text would exceed budget tokens. The result lies in [loc, total].
func WindowEnd(lines []string, loc, numLines, budget int, counter TokenCounter) int {
	total := len(lines)
	if loc >= total {
		return total
	}
	if numLines > 0 {
		return min(loc+numLines, total)
	}

	txt := JoinLines(lines[loc:], true, loc)
	if utf8.RuneCountInString(txt) <= budget {
		return total
	}

	chars := budget * CharsPerToken
	if counter != nil {
		if n, err := counter.PrefixLength(txt, budget); err == nil {
			chars = n
		}
	}

	prefix := txt
	if runes := []rune(txt); chars < len(runes) {
		prefix = string(runes[:max(chars, 0)])
	}
	// A trailing partial line counts; a prefix ending on a newline has none.
	end := loc + strings.Count(prefix, "\n")
	if !strings.HasSuffix(prefix, "\n") {
		end++
	}
	return max(loc, min(end, total))
}

// Lines returns the wrapped lines of doc as rendered, with trailing empty lines
// removed. A document always has at least one line.
func Lines(doc types.Document) []string {
	lines := WrapLines(doc.Text, DefaultWidth)
	for len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Render produces the display string for the window of doc starting at loc.
// cursor labels the page in the header. A loc past the last line is a usage
// error.
func Render(doc types.Document, cursor string, loc, numLines, budget int, counter TokenCounter) (string, error) {
	lines := Lines(doc)
	total := len(lines)
	loc = max(loc, 0)
	if loc >= total {
		return "", toolerr.Usage(toolerr.ErrOutOfRange,
			"Invalid location parameter: `%d`. Cannot exceed page maximum of %d.", loc, total-1)
	}

	end := WindowEnd(lines, loc, numLines, budget, counter)
	if end <= loc {
		end = loc + 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", cursor, doc.Title)
	if doc.URL != "" {
		fmt.Fprintf(&b, " (%s)", toolerr.MaybeTruncate(displayURL(doc.URL), MaxURLChars))
	}
	fmt.Fprintf(&b, "\n**viewing lines [%d - %d] of %d**\n\n", loc, end-1, total-1)
	b.WriteString(JoinLines(lines[loc:end], true, loc))
	return b.String(), nil
}

func displayURL(raw string) string {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
