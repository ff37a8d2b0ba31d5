// Package pipeline runs the post generation batches.
package pipeline

import (
	"errors"
	"fmt"

	"stpicks/internal/models"
)

// ErrReferencesFailed is returned by callers when a run recorded errors.
var ErrReferencesFailed = errors.New("some references failed")

// ReferenceError ties a failure to the reference it belongs to.
type ReferenceError struct {
	Index int
	URL   string
	Err   error
}

func (e *ReferenceError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("reference %d: %v", e.Index, e.Err)
	}

	return fmt.Sprintf("reference %d (%s): %v", e.Index, e.URL, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// Result contains the outcome of one batch.
type Result struct {
	Posts   []models.GeneratedPost
	Errors  []error
	Skipped int
}

// Count returns how many posts ended with status.
func (r *Result) Count(status models.WriteStatus) int {
	n := 0

	for _, p := range r.Posts {
		if p.Status == status {
			n++
		}
	}

	return n
}

// Failed reports whether any reference failed.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Err returns nil for a clean run, otherwise ErrReferencesFailed joined with
// every reference error.
func (r *Result) Err() error {
	if !r.Failed() {
		return nil
	}

	return errors.Join(append([]error{ErrReferencesFailed}, r.Errors...)...)
}

// Rows returns one report row per post: status, path, title, asset.
func (r *Result) Rows() [][]string {
	rows := make([][]string, 0, len(r.Posts))

	for _, p := range r.Posts {
		rows = append(rows, []string{string(p.Status), p.Record.Path, p.Title, p.Asset})
	}

	return rows
}

func (r *Result) fail(index int, url string, err error) {
	r.Errors = append(r.Errors, &ReferenceError{Index: index, URL: url, Err: err})
}
