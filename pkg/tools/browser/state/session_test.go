package state

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/types"
)

func doc(url string) types.Document {
	return types.Document{URL: url, Title: url, Text: "body of " + url}
}

func TestPushAllocatesIDs(t *testing.T) {
	s := New()

	assert.Equal(t, "p_a000", s.Push(doc("http://a.com")))
	assert.Equal(t, "p_a001", s.Push(doc("http://b.com")))

	for i := 0; i < 34; i++ {
		s.Push(doc(""))
	}
	assert.Equal(t, "p_a010", s.Push(doc("")))

	s.Reset()
	assert.Equal(t, "p_a000", s.Push(doc("")), "reset restarts the sequence")
}

func TestCurrentAndGet(t *testing.T) {
	s := New()

	_, err := s.Current()
	require.Error(t, err)
	assert.True(t, errors.Is(err, toolerr.ErrEmptySession))
	var te *toolerr.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "No pages to access!", te.Message)
	assert.NotEmpty(t, te.Hint)

	first := s.Push(doc("http://a.com"))
	second := s.Push(doc("http://b.com"))

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, second, cur)

	got, id, err := s.Get("")
	require.NoError(t, err)
	assert.Equal(t, second, id)
	assert.Equal(t, "http://b.com", got.URL)

	got, id, err = s.Get(first)
	require.NoError(t, err)
	assert.Equal(t, first, id)
	assert.Equal(t, "http://a.com", got.URL)

	_, _, err = s.Get("p_zzzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, toolerr.ErrUnknownPage))
	assert.Equal(t, "Page `p_zzzz` is not available in the current browser session.", err.Error())
}

func TestGetByURL(t *testing.T) {
	s := New()
	s.Push(doc("http://a.com"))
	s.Push(types.Document{URL: "http://a.com", Title: "newer"})

	got, ok := s.GetByURL("http://a.com")
	require.True(t, ok)
	assert.Equal(t, "newer", got.Title, "last write wins")

	_, ok = s.GetByURL("http://missing.com")
	assert.False(t, ok)

	_, ok = s.GetByURL("")
	assert.False(t, ok, "empty urls are never indexed")
}

func TestPopKeepsCacheEntry(t *testing.T) {
	s := New()
	first := s.Push(doc("http://a.com"))
	second := s.Push(doc("http://b.com"))

	s.Pop()

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, first, cur)
	assert.Equal(t, 1, s.Len())

	_, ok := s.GetByURL("http://b.com")
	assert.False(t, ok, "url mapping is dropped")

	got, _, err := s.Get(second)
	require.NoError(t, err, "document stays cached")
	assert.Equal(t, "http://b.com", got.URL)

	s.Pop()
	s.Pop()
	assert.Equal(t, 0, s.Len())
}

func TestPopDropsLatestURLMapping(t *testing.T) {
	s := New()
	s.Push(doc("http://a.com"))
	older := s.Push(doc("http://b.com"))
	newer := s.Push(doc("http://b.com"))
	require.NotEqual(t, older, newer)

	s.Pop()
	_, ok := s.GetByURL("http://b.com")
	assert.False(t, ok)
}

func TestSnapshotRestore(t *testing.T) {
	s := New()
	s.Push(doc("http://a.com"))
	top := s.Push(doc("http://b.com"))
	snap := s.Snapshot()

	s.Reset()
	s.Push(doc("http://c.com"))
	s.Restore(snap)

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, top, cur)
	assert.Equal(t, 2, s.Len())
	_, ok := s.GetByURL("http://c.com")
	assert.False(t, ok)
	assert.Equal(t, "p_a002", s.Push(doc("")), "sequence restored")
}

func TestEvictionSparesHistory(t *testing.T) {
	s := New(WithCapacity(3))

	ids := make([]string, 0, 6)
	for i := 0; i < 3; i++ {
		ids = append(ids, s.Push(doc(fmt.Sprintf("http://%d.com", i))))
	}
	// Empty the stack so earlier pages become evictable.
	s.Pop()
	s.Pop()
	s.Pop()
	s.Push(doc("http://keep.com"))
	s.Push(doc("http://new.com"))

	assert.LessOrEqual(t, s.Cached(), 3)
	_, _, err := s.Get(ids[0])
	assert.Error(t, err, "oldest off-stack document is evicted")

	for _, id := range s.History() {
		_, _, err := s.Get(id)
		assert.NoError(t, err, "history entries are never evicted")
	}
}

func TestEvictionWithFullStack(t *testing.T) {
	s := New(WithCapacity(2))
	for i := 0; i < 5; i++ {
		s.Push(doc(fmt.Sprintf("http://%d.com", i)))
	}
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 5, s.Cached(), "stack entries stay even above capacity")
}
