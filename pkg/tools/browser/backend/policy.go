package backend

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// PolicyViolation is returned when a fetch targets a host the policy rejects.
type PolicyViolation struct {
	Host    string
	Message string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("host policy violation (%s): %s", e.Host, e.Message)
}

// HostPolicy decides which hosts pages may be fetched from. Patterns are globs
// over the hostname with "." as separator, so "*.example.com" matches one
// subdomain level and "**.example.com" matches any depth.
type HostPolicy struct {
	allowed []glob.Glob
	denied  []glob.Glob
}

// NewHostPolicy compiles allow and deny patterns.
func NewHostPolicy(allowed, denied []string) (*HostPolicy, error) {
	p := &HostPolicy{}

	for _, pattern := range allowed {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid allowed host pattern '%s': %w", pattern, err)
		}
		p.allowed = append(p.allowed, g)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid denied host pattern '%s': %w", pattern, err)
		}
		p.denied = append(p.denied, g)
	}

	return p, nil
}

// IsAllowed reports whether host may be fetched. Deny patterns take precedence;
// with no allow patterns every host not denied is allowed.
func (p *HostPolicy) IsAllowed(host string) bool {
	if p == nil {
		return true
	}
	host = strings.ToLower(host)

	for _, g := range p.denied {
		if g.Match(host) {
			return false
		}
	}

	if len(p.allowed) == 0 {
		return true
	}

	for _, g := range p.allowed {
		if g.Match(host) {
			return true
		}
	}

	return false
}

// Check returns a *PolicyViolation when host is not allowed.
func (p *HostPolicy) Check(host string) error {
	if p.IsAllowed(host) {
		return nil
	}
	return &PolicyViolation{Host: host, Message: "fetching from this host is not permitted"}
}
