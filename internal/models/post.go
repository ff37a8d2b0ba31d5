// Package models defines data structures shared by the resolver, store and pipelines.
package models

import "time"

// PostReference points at an externally hosted post to be mirrored as a static page.
type PostReference struct {
	Date  time.Time
	URL   string
	Title string
}

// HasDate reports whether the reference carries its own date.
func (r PostReference) HasDate() bool {
	return !r.Date.IsZero()
}

// OutputRecord is a generated post file and the source URL stored in its front matter.
type OutputRecord struct {
	Identifier string
	Path       string
	Permalink  string
}

// PageMeta is the descriptive metadata extracted from a post's page.
type PageMeta struct {
	Description string
	ImageURL    string
}

// WriteStatus describes the outcome of an upsert.
type WriteStatus string

// Write statuses.
const (
	StatusCreated WriteStatus = "created"
	StatusUpdated WriteStatus = "updated"
	StatusSkipped WriteStatus = "skipped"
)

// GeneratedPost reports one upserted record.
type GeneratedPost struct {
	Record OutputRecord
	Title  string
	Asset  string
	Status WriteStatus
}
