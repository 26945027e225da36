// Package toolerr defines the error variant returned by the browsing tools.
//
// Every failure that reaches a caller is a *Error tagged with a Kind. Usage
// errors describe caller mistakes and may carry a hint telling the caller how to
// recover; backend errors wrap failures of the external search/fetch collaborator.
package toolerr

import (
	"errors"
	"fmt"
)

// Kind classifies a tool error.
type Kind string

const (
	// KindUsage marks a caller mistake: bad arguments, unknown pages, out-of-range cursors.
	KindUsage Kind = "usage"

	// KindBackend marks a transport or parse failure in the search/fetch backend.
	KindBackend Kind = "backend"
)

// Sentinel causes for usage errors. Use errors.Is to test for them.
var (
	ErrEmptySession  = errors.New("empty session")
	ErrUnknownPage   = errors.New("unknown page")
	ErrOutOfRange    = errors.New("location out of range")
	ErrInvalidLink   = errors.New("invalid link id")
	ErrFindOnResults = errors.New("find on find-result page")
	ErrInvalidArgs   = errors.New("invalid arguments")
)

// MaxMessageChars bounds upstream messages embedded in backend errors.
const MaxMessageChars = 1024

// Error is a tagged tool error.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithHint attaches an actionable hint and returns the error for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// Display renders the message followed by the hint, if any.
func (e *Error) Display() string {
	if e.Hint == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Message, e.Hint)
}

// Usage builds a usage error classified by cause.
func Usage(cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindUsage,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// Backend builds a backend error around err. The upstream message is truncated
// to MaxMessageChars.
func Backend(err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, MaybeTruncate(err.Error(), MaxMessageChars))
	}
	return &Error{
		Kind:    KindBackend,
		Message: msg,
		Err:     err,
	}
}

// IsKind reports whether err is a tool error of the given kind.
func IsKind(err error, kind Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}

// MaybeTruncate shortens text to at most n runes, marking the cut with "...".
func MaybeTruncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// Display renders any error for a caller: tool errors with their hint, other
// errors by their message.
func Display(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Display()
	}
	return err.Error()
}
