package api

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const (
	// MaxScanIDLength bounds scan identifiers accepted from users.
	MaxScanIDLength = 256

	// MaxTokenLength bounds bearer tokens accepted from users.
	MaxTokenLength = 8192
)

// ValidateScanID rejects empty, oversized or control-character scan ids.
// Anything else is passed to the backend path-escaped.
func ValidateScanID(scanID string) error {
	scanID = strings.TrimSpace(scanID)
	if scanID == "" {
		return fmt.Errorf("scan id is required")
	}
	if len(scanID) > MaxScanIDLength {
		return fmt.Errorf("scan id exceeds %d characters", MaxScanIDLength)
	}
	for _, r := range scanID {
		if unicode.IsControl(r) {
			return fmt.Errorf("scan id contains control characters")
		}
	}
	return nil
}

// ValidateToken checks that a bearer token can be sent in a header.
func ValidateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}
	if len(token) > MaxTokenLength {
		return fmt.Errorf("token exceeds %d characters", MaxTokenLength)
	}
	for _, r := range token {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("token must not contain whitespace or control characters")
		}
	}
	return nil
}

// ValidateAPIBase verifies the backend base URL is an absolute http(s) URL.
func ValidateAPIBase(base string) error {
	base = strings.TrimSpace(base)
	if base == "" {
		return fmt.Errorf("api_base is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("api_base is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api_base must include a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("api_base must not include a query or fragment")
	}
	return nil
}
