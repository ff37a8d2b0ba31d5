// Package resolver derives stable identifiers for post references and decides
// whether a reference maps onto an existing output record or a new one.
package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

// FallbackSlug replaces a slug that sanitizes to nothing.
const FallbackSlug = "post"

// hashLength is the number of hex characters kept from the URL digest.
const hashLength = 10

var (
	// markerSegments precede a numeric post id in a path, e.g. /stpicks/posts/209013199257911.
	markerSegments = map[string]bool{
		"posts":     true,
		"videos":    true,
		"reels":     true,
		"permalink": true,
	}

	// queryIDFields carry a numeric post id, checked in order.
	queryIDFields = []string{"fbid", "story_fbid", "v", "id"}

	digitRunPattern = regexp.MustCompile(`\d{5,}`)
	nonSlugPattern  = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizePermalink returns the identity form of a source URL.
func NormalizePermalink(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// SanitizeSlug lowercases raw, collapses runs of other characters into a single
// hyphen and trims hyphens from both ends.
func SanitizeSlug(raw string) string {
	slug := nonSlugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return FallbackSlug
	}

	return slug
}

// DeriveIdentifier returns the sanitized slug for a source URL. It is a pure
// function of its input.
func DeriveIdentifier(sourceURL string) string {
	return SanitizeSlug(rawIdentifier(NormalizePermalink(sourceURL)))
}

func rawIdentifier(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err == nil {
		segments := pathSegments(parsed.EscapedPath())

		for i := 0; i+1 < len(segments); i++ {
			if markerSegments[strings.ToLower(segments[i])] && isNumeric(segments[i+1]) {
				return segments[i+1]
			}
		}

		if n := len(segments); n > 0 && isNumeric(segments[n-1]) {
			return segments[n-1]
		}

		query := parsed.Query()
		for _, field := range queryIDFields {
			if v := query.Get(field); isNumeric(v) {
				return v
			}
		}
	}

	if run := digitRunPattern.FindString(sourceURL); run != "" {
		return run
	}

	sum := sha256.Sum256([]byte(sourceURL))

	return hex.EncodeToString(sum[:])[:hashLength]
}

func pathSegments(path string) []string {
	var segments []string

	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	return segments
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
