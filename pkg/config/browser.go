package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/pagewise/pkg/tools/browser/find"
)

// BrowserSectionID is the id of the browser section.
const BrowserSectionID = "browser"

const (
	defaultViewTokens   = 1024
	defaultCacheSize    = 256
	defaultEncoding     = "o200k_base"
	maxViewTokens       = 32768
	maxFindResults      = 1000
	maxFindContextLines = 50
)

// BrowserSection configures page rendering, the page cache and find limits.
type BrowserSection struct {
	ViewTokens       int
	CacheSize        int
	Encoding         string
	FindMaxResults   int
	FindContextLines int
	RegexTimeout     time.Duration
	ScanTimeout      time.Duration
	mu               sync.RWMutex
}

// NewBrowserSection creates a browser section with defaults.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

func (s *BrowserSection) ID() string { return BrowserSectionID }

func (s *BrowserSection) Title() string { return "Browser" }

func (s *BrowserSection) Description() string {
	return "Token budget of rendered pages, page cache size and find limits"
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"view_tokens":        s.ViewTokens,
		"cache_size":         s.CacheSize,
		"encoding":           s.Encoding,
		"find_max_results":   s.FindMaxResults,
		"find_context_lines": s.FindContextLines,
		"regex_timeout":      s.RegexTimeout.String(),
		"scan_timeout":       s.ScanTimeout.String(),
	}
}

// SetData updates the configuration from the provided data. Unknown keys are
// ignored.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "view_tokens":
			s.ViewTokens, err = intValue(key, value)
		case "cache_size":
			s.CacheSize, err = intValue(key, value)
		case "encoding":
			s.Encoding, err = stringValue(key, value)
		case "find_max_results":
			s.FindMaxResults, err = intValue(key, value)
		case "find_context_lines":
			s.FindContextLines, err = intValue(key, value)
		case "regex_timeout":
			s.RegexTimeout, err = durationValue(key, value)
		case "scan_timeout":
			s.ScanTimeout, err = durationValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewTokens < 1 || s.ViewTokens > maxViewTokens {
		return fmt.Errorf("view_tokens must be between 1 and %d, got %d", maxViewTokens, s.ViewTokens)
	}
	if s.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive, got %d", s.CacheSize)
	}
	if s.Encoding == "" {
		return fmt.Errorf("encoding must not be empty")
	}
	if s.FindMaxResults < 1 || s.FindMaxResults > maxFindResults {
		return fmt.Errorf("find_max_results must be between 1 and %d, got %d", maxFindResults, s.FindMaxResults)
	}
	if s.FindContextLines < 1 || s.FindContextLines > maxFindContextLines {
		return fmt.Errorf("find_context_lines must be between 1 and %d, got %d", maxFindContextLines, s.FindContextLines)
	}
	if s.RegexTimeout <= 0 {
		return fmt.Errorf("regex_timeout must be positive, got %v", s.RegexTimeout)
	}
	if s.ScanTimeout < s.RegexTimeout {
		return fmt.Errorf("scan_timeout %v must not be shorter than regex_timeout %v", s.ScanTimeout, s.RegexTimeout)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ViewTokens = defaultViewTokens
	s.CacheSize = defaultCacheSize
	s.Encoding = defaultEncoding
	s.FindMaxResults = find.DefaultMaxResults
	s.FindContextLines = find.DefaultContextLines
	s.RegexTimeout = find.DefaultMatchTimeout
	s.ScanTimeout = find.DefaultScanTimeout
}

// FindOptions returns the find limits.
func (s *BrowserSection) FindOptions() find.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return find.Options{
		MaxResults:   s.FindMaxResults,
		ContextLines: s.FindContextLines,
		MatchTimeout: s.RegexTimeout,
		ScanTimeout:  s.ScanTimeout,
	}
}

// Rendering returns the view token budget, cache size and tokenizer encoding.
func (s *BrowserSection) Rendering() (viewTokens, cacheSize int, encoding string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ViewTokens, s.CacheSize, s.Encoding
}
