package normalize

import (
	"net/url"
	"strings"
)

// Host returns the hostname of rawURL, or "" when it has none. Bare hostnames
// such as "example.com/path" are accepted.
func Host(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err == nil && u.Host != "" {
		return strings.ToLower(u.Hostname())
	}
	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "//") {
		if u, err := url.Parse("http://" + rawURL); err == nil {
			return strings.ToLower(u.Hostname())
		}
	}
	return ""
}

// Resolve joins href against base the way a browser would: absolute references
// pass through, relative ones take the base's scheme, authority and directory
// with "." and ".." segments removed. ok is false when the result has no host.
func Resolve(base, href string) (resolved string, ok bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if base != "" {
		b, err := url.Parse(base)
		if err == nil {
			ref = b.ResolveReference(ref)
		}
	}
	if ref.Host == "" {
		return "", false
	}
	ref.Scheme = strings.ToLower(ref.Scheme)
	ref.Host = strings.ToLower(ref.Host)
	return ref.String(), true
}

// rewriteArxiv points arxiv.org links at the ar5iv HTML renderer.
func rewriteArxiv(resolved string) string {
	u, err := url.Parse(resolved)
	if err != nil {
		return resolved
	}
	host := u.Hostname()
	if host != "arxiv.org" && !strings.HasSuffix(host, ".arxiv.org") {
		return resolved
	}
	u.Host = strings.Replace(u.Host, "arxiv.org", "ar5iv.org", 1)
	return u.String()
}

func isSkippedScheme(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:")
}
