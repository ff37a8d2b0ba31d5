// Package utils provides common utility functions.
package utils

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultUserAgent identifies the generators to remote hosts.
const DefaultUserAgent = "Mozilla/5.0 (compatible; STPicksBot/1.0; +https://github.com/stpicks)"

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
}

// NewHTTPHelper creates a new HTTP helper. An empty userAgent means DefaultUserAgent.
func NewHTTPHelper(userAgent string) *HTTPHelper {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPHelper{userAgent: userAgent}
}

// UserAgent returns the configured User-Agent.
func (h *HTTPHelper) UserAgent() string {
	return h.userAgent
}

// IsValidURL reports whether raw is an absolute http(s) URL with a host.
func (h *HTTPHelper) IsValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildHeaders creates HTTP headers with defaults.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.8")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}

// HeaderMap flattens headers into the single-value map form HTTP clients accept.
func HeaderMap(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}

	return out
}
