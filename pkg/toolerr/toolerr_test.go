package toolerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsage(t *testing.T) {
	err := Usage(ErrInvalidLink, "Invalid link id `%s`.", "7").
		WithHint("Use a link id shown on the current page.")

	assert.Equal(t, "Invalid link id `7`.", err.Error())
	assert.Equal(t, "Invalid link id `7`. Use a link id shown on the current page.", err.Display())
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.True(t, IsKind(err, KindUsage))
	assert.False(t, IsKind(err, KindBackend))
}

func TestBackend(t *testing.T) {
	cause := errors.New(strings.Repeat("x", 2000))
	err := Backend(cause, "Error fetching URL `%s`", "https://go.dev/")

	assert.True(t, IsKind(err, KindBackend))
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.HasPrefix(err.Error(), "Error fetching URL `https://go.dev/`: xxx"))
	assert.True(t, strings.HasSuffix(err.Error(), "x..."))
	assert.Len(t, err.Error(), len("Error fetching URL `https://go.dev/`: ")+MaxMessageChars)

	assert.Equal(t, "Error during search", Backend(nil, "Error during search").Error())
}

func TestIsKindWrapped(t *testing.T) {
	wrapped := fmt.Errorf("open: %w", Usage(ErrUnknownPage, "Invalid page id"))
	assert.True(t, IsKind(wrapped, KindUsage))
	assert.ErrorIs(t, wrapped, ErrUnknownPage)
	assert.False(t, IsKind(errors.New("plain"), KindUsage))
}

func TestDisplay(t *testing.T) {
	hinted := Usage(ErrEmptySession, "No pages to access!").WithHint("Search first.")
	assert.Equal(t, "No pages to access! Search first.", Display(fmt.Errorf("wrap: %w", hinted)))
	assert.Equal(t, "plain", Display(errors.New("plain")))
}

func TestMaybeTruncate(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 8, "trunc..."},
		{"⟦a†b⟧⟦c†d⟧", 6, "⟦a†..."},
		{"abcdef", 3, "abc"},
		{"abcdef", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaybeTruncate(tt.text, tt.n), tt.text)
	}
}
