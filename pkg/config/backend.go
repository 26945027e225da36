package config

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/pagewise/pkg/tools/browser/backend"
)

// BackendSectionID is the id of the backend section.
const BackendSectionID = "backend"

// Environment variables that override the backend section.
const (
	EnvBackend     = "PAGEWISE_BACKEND"
	EnvSearxNGURL  = "SEARXNG_URL"
	EnvBraveAPIKey = "BRAVE_API_KEY"
)

const (
	defaultBackendTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 5 << 20
)

// BackendSection selects the search backend and configures page fetching.
type BackendSection struct {
	Driver        string
	BaseURL       string
	APIKey        string
	BraveURL      string
	DuckDuckGoURL string
	UserAgent     string
	Timeout       time.Duration
	MaxBodyBytes  int
	AllowedHosts  []string
	BlockedHosts  []string
	mu            sync.RWMutex
}

// NewBackendSection creates a backend section with defaults.
func NewBackendSection() *BackendSection {
	s := &BackendSection{}
	s.Reset()
	return s
}

func (s *BackendSection) ID() string { return BackendSectionID }

func (s *BackendSection) Title() string { return "Search Backend" }

func (s *BackendSection) Description() string {
	return "Search provider, its endpoint and credentials, and limits on fetched pages"
}

// Data returns the current configuration data.
func (s *BackendSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"driver":         s.Driver,
		"base_url":       s.BaseURL,
		"api_key":        s.APIKey,
		"brave_url":      s.BraveURL,
		"duckduckgo_url": s.DuckDuckGoURL,
		"user_agent":     s.UserAgent,
		"timeout":        s.Timeout.String(),
		"max_body_bytes": s.MaxBodyBytes,
		"allowed_hosts":  listData(s.AllowedHosts),
		"blocked_hosts":  listData(s.BlockedHosts),
	}
}

// SetData updates the configuration from the provided data. Unknown keys are
// ignored.
func (s *BackendSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "driver":
			var driver string
			driver, err = stringValue(key, value)
			s.Driver = strings.ToLower(driver)
		case "base_url":
			s.BaseURL, err = stringValue(key, value)
		case "api_key":
			s.APIKey, err = stringValue(key, value)
		case "brave_url":
			s.BraveURL, err = stringValue(key, value)
		case "duckduckgo_url":
			s.DuckDuckGoURL, err = stringValue(key, value)
		case "user_agent":
			s.UserAgent, err = stringValue(key, value)
		case "timeout":
			s.Timeout, err = durationValue(key, value)
		case "max_body_bytes":
			s.MaxBodyBytes, err = intValue(key, value)
		case "allowed_hosts":
			s.AllowedHosts, err = stringListValue(key, value)
		case "blocked_hosts":
			s.BlockedHosts, err = stringListValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BackendSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Driver {
	case backend.DriverSearxNG:
		if s.BaseURL == "" {
			return fmt.Errorf("base_url is required for the %s driver", s.Driver)
		}
	case backend.DriverBrave:
		if s.APIKey == "" {
			return fmt.Errorf("api_key is required for the %s driver", s.Driver)
		}
	case backend.DriverDuckDuckGo:
	default:
		return fmt.Errorf("unknown driver %q", s.Driver)
	}

	for key, raw := range map[string]string{
		"base_url":       s.BaseURL,
		"brave_url":      s.BraveURL,
		"duckduckgo_url": s.DuckDuckGoURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
		}
	}

	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", s.Timeout)
	}
	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", s.MaxBodyBytes)
	}

	if _, err := backend.NewHostPolicy(s.AllowedHosts, s.BlockedHosts); err != nil {
		return err
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BackendSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Driver = backend.DriverDuckDuckGo
	s.BaseURL = ""
	s.APIKey = ""
	s.BraveURL = ""
	s.DuckDuckGoURL = ""
	s.UserAgent = backend.DefaultUserAgent
	s.Timeout = defaultBackendTimeout
	s.MaxBodyBytes = defaultMaxBodyBytes
	s.AllowedHosts = nil
	s.BlockedHosts = nil
}

// ApplyEnvironment overrides the driver, SearxNG URL and Brave key from the
// environment. A SearxNG URL or Brave key without an explicit driver also
// selects that driver.
func (s *BackendSection) ApplyEnvironment(lookup func(string) (string, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	searx, hasSearx := lookupNonEmpty(lookup, EnvSearxNGURL)
	brave, hasBrave := lookupNonEmpty(lookup, EnvBraveAPIKey)
	driver, hasDriver := lookupNonEmpty(lookup, EnvBackend)

	if hasSearx {
		s.BaseURL = searx
	}
	if hasBrave {
		s.APIKey = brave
	}

	switch {
	case hasDriver:
		s.Driver = strings.ToLower(driver)
	case hasSearx:
		s.Driver = backend.DriverSearxNG
	case hasBrave:
		s.Driver = backend.DriverBrave
	}
}

func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// BackendConfig converts the section into the backend factory's config.
func (s *BackendSection) BackendConfig() backend.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return backend.Config{
		Driver:        s.Driver,
		SearxNGURL:    s.BaseURL,
		BraveAPIKey:   s.APIKey,
		BraveURL:      s.BraveURL,
		DuckDuckGoURL: s.DuckDuckGoURL,
		HTTP: backend.HTTPOptions{
			UserAgent:    s.UserAgent,
			Timeout:      s.Timeout,
			MaxBodyBytes: int64(s.MaxBodyBytes),
			AllowHosts:   append([]string(nil), s.AllowedHosts...),
			DenyHosts:    append([]string(nil), s.BlockedHosts...),
		},
	}
}
