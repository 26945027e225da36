package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		url       string
		wantText  string
		wantLinks map[string]string
	}{
		{
			name:      "same host link",
			html:      `<a href="/x">Hi</a>`,
			url:       "http://a.com",
			wantText:  "⟦0†Hi⟧",
			wantLinks: map[string]string{"0": "http://a.com/x"},
		},
		{
			name:      "cross host link carries host",
			html:      `<p>See <a href="https://b.org/y">the docs</a> now.</p>`,
			url:       "http://a.com/page",
			wantText:  "See ⟦0†the docs†b.org⟧ now.",
			wantLinks: map[string]string{"0": "https://b.org/y"},
		},
		{
			name:      "duplicate targets share an id",
			html:      `<p><a href="/x">one</a> <a href="http://a.com/x">two</a> <a href="/z">three</a></p>`,
			url:       "http://a.com/",
			wantText:  "⟦0†one⟧ ⟦0†two⟧ ⟦1†three⟧",
			wantLinks: map[string]string{"0": "http://a.com/x", "1": "http://a.com/z"},
		},
		{
			name:      "relative paths are normalized",
			html:      `<a href="../c/./d.html">up</a>`,
			url:       "http://a.com/a/b/index.html",
			wantText:  "⟦0†up⟧",
			wantLinks: map[string]string{"0": "http://a.com/a/c/d.html"},
		},
		{
			name:      "mailto javascript and fragments stay plain",
			html:      `<p><a href="mailto:x@y.z">mail</a> <a href="javascript:void(0)">js</a> <a href="#top">top</a></p>`,
			url:       "http://a.com/",
			wantText:  "mail js top",
			wantLinks: map[string]string{},
		},
		{
			name:      "link without host becomes plain text",
			html:      `<a href="/x">orphan</a>`,
			url:       "",
			wantText:  "orphan",
			wantLinks: map[string]string{},
		},
		{
			name:      "image only anchor is not numbered",
			html:      `<a href="/x"><img src="a.png"></a><a href="/y">real</a>`,
			url:       "http://a.com/",
			wantText:  "[Image 0]⟦0†real⟧",
			wantLinks: map[string]string{"0": "http://a.com/y"},
		},
		{
			name:      "arxiv links point at ar5iv",
			html:      `<a href="https://arxiv.org/abs/1706.03762">paper</a>`,
			url:       "http://a.com/",
			wantText:  "⟦0†paper†arxiv.org⟧",
			wantLinks: map[string]string{"0": "https://ar5iv.org/abs/1706.03762"},
		},
		{
			name:     "headings and paragraphs",
			html:     `<h2>Title</h2><p>Body text</p>`,
			url:      "http://a.com/",
			wantText: "## Title\n\nBody text",
		},
		{
			name:     "list items become bullets",
			html:     `<ul><li>alpha</li><li>beta</li></ul>`,
			url:      "http://a.com/",
			wantText: "  * alpha\n  * beta",
		},
		{
			name:     "images with alt and title",
			html:     `<img alt="cat"><img title="dog"><img>`,
			url:      "http://a.com/",
			wantText: "[Image 0: cat][Image 1: dog][Image 2]",
		},
		{
			name:     "script style and math are removed",
			html:     `<p>keep<script>drop()</script><style>.x{}</style> this<math><mi>x</mi></math></p>`,
			url:      "http://a.com/",
			wantText: "keep this",
		},
		{
			name:     "adjacent tags keep words apart",
			html:     `<b>foo</b><i>bar</i> baz<br>qux`,
			url:      "http://a.com/",
			wantText: "foo bar baz\nqux",
		},
		{
			name:     "sup and sub are promoted",
			html:     `<p>x<sup>2</sup> and H<sub>2</sub>O</p>`,
			url:      "http://a.com/",
			wantText: "x^{2} and H_{2}O",
		},
		{
			name:     "reserved glyphs are remapped",
			html:     `<p>⟦raw⟧ a†b ◼</p>`,
			url:      "http://a.com/",
			wantText: "〚raw〛 a‡b ◾",
		},
		{
			name:      "decoded entities cannot form markers",
			html:      `<p>See <a href="/x">A &dagger; B</a> and &#x27E6;fake&#x27E7; text</p>`,
			url:       "http://a.com/",
			wantText:  "See ⟦0†A ‡ B⟧ and 〚fake〛 text",
			wantLinks: map[string]string{"0": "http://a.com/x"},
		},
		{
			name:     "decoded entities in alt text are remapped",
			html:     `<img alt="x &#8224; y &#x1F600;">`,
			url:      "http://a.com/",
			wantText: "[Image 0: x ‡ y]",
		},
		{
			name:     "astral characters are stripped",
			html:     "<p>ok 😀 done</p>",
			url:      "http://a.com/",
			wantText: "ok done",
		},
		{
			name:     "entities decode and whitespace collapses",
			html:     "<p>a &amp; b   \t c</p>\n\n\n\n<p>d</p>",
			url:      "http://a.com/",
			wantText: "a & b c\n\nd",
		},
		{
			name:     "escaped ordinal dots are unescaped",
			html:     `<p>1\. first</p>`,
			url:      "http://a.com/",
			wantText: "1. first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Normalize(tt.html, tt.url, "", false)
			assert.Equal(t, tt.wantText, doc.Text)
			if tt.wantLinks != nil {
				assert.Equal(t, tt.wantLinks, doc.Links.Map())
			}
		})
	}
}

func TestNormalizeLinkIDsAreReferenced(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
		<nav><a href="/a">A</a> <a href="/b">B</a></nav>
		<script><a href="/hidden">hidden</a></script>
		<p>Text <a href="https://other.net/c">C</a> and <a href="/a">A again</a>.</p>
	</body></html>`

	doc := Normalize(page, "https://site.io/", "", false)

	require.Equal(t, 3, doc.Links.Len())
	for _, id := range doc.Links.IDs() {
		assert.Contains(t, doc.Text, "⟦"+id+"†", "id %s must appear in text", id)
	}
	for _, u := range doc.Links.Map() {
		assert.NotContains(t, u, "hidden")
	}
}

func TestNormalizeTitle(t *testing.T) {
	page := `<html><head><title>  Page   Title </title></head><body><p>x</p></body></html>`

	t.Run("explicit title wins", func(t *testing.T) {
		assert.Equal(t, "Given", Normalize(page, "http://a.com/", "Given", false).Title)
	})
	t.Run("title element", func(t *testing.T) {
		assert.Equal(t, "Page Title", Normalize(page, "http://a.com/", "", false).Title)
	})
	t.Run("host fallback", func(t *testing.T) {
		assert.Equal(t, "a.com", Normalize("<p>x</p>", "http://a.com/q", "", false).Title)
	})
	t.Run("empty when nothing known", func(t *testing.T) {
		assert.Equal(t, "", Normalize("<p>x</p>", "", "", false).Title)
	})
}

func TestNormalizeURLHeader(t *testing.T) {
	doc := Normalize("<p>body</p>", "http://a.com/x", "", true)
	assert.Equal(t, "\nURL: http://a.com/x\nbody", doc.Text)
}

func TestPlain(t *testing.T) {
	doc := Plain("<b>raw</b>\r\nline ⟦x⟧\n", "http://a.com/x", "", false)
	assert.Equal(t, "<b>raw</b>\nline 〚x〛", doc.Text)
	assert.Equal(t, "a.com", doc.Title)
	assert.Equal(t, 0, doc.Links.Len())
}

func TestFallback(t *testing.T) {
	doc := fallback("<p>a &amp; b</p><script>alert(1)</script><div>c<br>d</div>", "http://a.com/", "", false)

	assert.Equal(t, "a & b\nc\nd", doc.Text)
	assert.Equal(t, "a.com", doc.Title)
	assert.Equal(t, 0, doc.Links.Len())

	doc = fallback("<p>&#x27E6;0&dagger;fake&#x27E7;</p>", "http://a.com/", "", false)
	assert.Equal(t, "〚0‡fake〛", doc.Text)
}

func TestTidy(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing whitespace trimmed", "a  \nb\t", "a\nb"},
		{"whitespace only lines emptied", "a\n   \n\n \nb", "a\n\nb"},
		{"indentation kept", "  * item   one", "  * item one"},
		{"empty bullet keeps separator", "  * \n  * b", "  * \n  * b"},
		{"more indented successor keeps shape", "a \n    b", "a \n    b"},
		{"carriage returns normalized", "a\r\nb\rc", "a\nb\nc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tidy(tt.in))
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, href string
		want       string
		ok         bool
	}{
		{"http://a.com/dir/page", "other", "http://a.com/dir/other", true},
		{"http://a.com/dir/page", "/root", "http://a.com/root", true},
		{"http://a.com/dir/page", "//cdn.b.com/x", "http://cdn.b.com/x", true},
		{"http://a.com/dir/page", "HTTPS://B.COM/Path", "https://b.com/Path", true},
		{"", "https://b.com/", "https://b.com/", true},
		{"", "/relative", "", false},
		{"http://a.com/", "tel:123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.base+"+"+tt.href, func(t *testing.T) {
			got, ok := Resolve(tt.base, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "a.com", Host("http://A.com:8080/x"))
	assert.Equal(t, "example.org", Host("example.org/path"))
	assert.Equal(t, "", Host(""))
}
