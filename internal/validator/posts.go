// Package validator checks a posts directory for records the site cannot build
// or that break the one-record-per-source rule.
package validator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"stpicks/internal/entries"
	"stpicks/internal/logger"
	"stpicks/internal/posts"
	"stpicks/internal/resolver"
	"stpicks/pkg/frontmatter"
)

// Validation errors.
var (
	ErrLayoutRequired     = errors.New("layout is required")
	ErrTitleRequired      = errors.New("title is required")
	ErrDateRequired       = errors.New("date is required")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidFilename    = errors.New("filename does not match pattern")
	ErrDuplicatePermalink = errors.New("fb_permalink already stored by another post")
)

// FilenamePattern is the shape of a post file name.
const FilenamePattern = `^\d{4}-\d{2}-\d{2}-[a-z0-9-]+\.md$`

var filenameRegex = regexp.MustCompile(FilenamePattern)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Field   string
	Value   string
	Pattern string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}

	return fmt.Sprintf("%s [%s]: %s", e.File, e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalFiles     int
	ValidFiles     int
	InvalidFiles   int
	Duplicates     int
	WithPermalinks int
}

// PostsValidator validates the files of a posts directory.
type PostsValidator struct {
	logger *logger.Logger
}

// NewPostsValidator creates a new validator.
func NewPostsValidator(log *logger.Logger) *PostsValidator {
	return &PostsValidator{logger: log}
}

// ValidateDir checks every .md file directly under postsDir. A missing
// directory is reported as a warning.
func (v *PostsValidator) ValidateDir(postsDir string) (*ValidationResult, error) {
	result := &ValidationResult{IsValid: true}

	dirEntries, err := os.ReadDir(postsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("posts directory %s does not exist", postsDir))

			return result, nil
		}

		return nil, fmt.Errorf("failed to read posts directory: %w", err)
	}

	var names []string

	for _, e := range dirEntries {
		if !e.IsDir() && filepath.Ext(e.Name()) == resolver.PostExt {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	owners := make(map[string]string)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(postsDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		result.Stats.TotalFiles++

		errs, permalink := v.validateFile(name, string(content), result)

		if permalink != "" {
			result.Stats.WithPermalinks++

			if first, dup := owners[permalink]; dup {
				result.Stats.Duplicates++
				errs = append(errs, ValidationError{
					File:    name,
					Field:   "fb_permalink",
					Value:   permalink,
					Message: fmt.Sprintf("permalink already stored by %s", first),
					Err:     ErrDuplicatePermalink,
				})
			} else {
				owners[permalink] = name
			}
		}

		if len(errs) > 0 {
			result.IsValid = false
			result.Stats.InvalidFiles++
			result.Errors = append(result.Errors, errs...)
		} else {
			result.Stats.ValidFiles++
		}
	}

	v.logger.Debug("Validated posts", "dir", postsDir, "files", result.Stats.TotalFiles, "errors", len(result.Errors))

	return result, nil
}

// ValidateFile checks one post and returns its errors and warnings.
func (v *PostsValidator) ValidateFile(name, content string) ([]ValidationError, []string) {
	result := &ValidationResult{}
	errs, _ := v.validateFile(name, content, result)

	return errs, result.Warnings
}

// validateFile returns the errors of one file and its normalized permalink.
// Warnings are appended to result.
func (v *PostsValidator) validateFile(name, content string, result *ValidationResult) ([]ValidationError, string) {
	var errs []ValidationError

	if !filenameRegex.MatchString(name) {
		errs = append(errs, ValidationError{
			File:    name,
			Value:   name,
			Pattern: FilenamePattern,
			Message: "filename is not YYYY-MM-DD-slug.md",
			Err:     ErrInvalidFilename,
		})
	}

	fields, _, err := frontmatter.ParseFields(content)
	if err != nil {
		return append(errs, ValidationError{
			File:    name,
			Message: err.Error(),
			Err:     err,
		}), ""
	}

	required := []struct {
		field string
		value string
		err   error
	}{
		{"layout", fields.String("layout"), ErrLayoutRequired},
		{"title", fields.String("title"), ErrTitleRequired},
		{"date", fields.String("date"), ErrDateRequired},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, ValidationError{
				File:    name,
				Field:   r.field,
				Message: fmt.Sprintf("%s field is empty", r.field),
				Err:     r.err,
			})
		}
	}

	fmDate := fields.String("date")

	if strings.TrimSpace(fmDate) != "" {
		date, err := entries.ParseDate(fmDate)
		if err != nil {
			errs = append(errs, ValidationError{
				File:    name,
				Field:   "date",
				Value:   fmDate,
				Pattern: resolver.DateLayout,
				Message: fmt.Sprintf("date '%s' invalid format", fmDate),
				Err:     ErrInvalidDate,
			})
		} else if filenameRegex.MatchString(name) {
			day := date.Format(resolver.DateLayout)
			if prefix := name[:len(resolver.DateLayout)]; prefix != day {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: filename date %s differs from front matter date %s", name, prefix, day))
			}
		}
	}

	return errs, resolver.NormalizePermalink(fields.String(posts.PermalinkKey))
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf(
		"%s | Total: %d | Valid: %d | Invalid: %d | Duplicates: %d | Warnings: %d",
		status,
		r.Stats.TotalFiles,
		r.Stats.ValidFiles,
		r.Stats.InvalidFiles,
		r.Stats.Duplicates,
		len(r.Warnings),
	)
}

// PrintErrors prints validation errors in readable format.
func (r *ValidationResult) PrintErrors(w io.Writer) {
	if len(r.Errors) == 0 {
		return
	}

	fmt.Fprintln(w, "❌ Validation Errors:")

	for _, err := range r.Errors {
		fmt.Fprintf(w, "  %s", err.File)

		if err.Field != "" {
			fmt.Fprintf(w, " [%s]", err.Field)
		}

		fmt.Fprintf(w, ": %s\n", err.Message)

		if err.Value != "" {
			fmt.Fprintf(w, "    Found: %q\n", err.Value)
		}

		if err.Pattern != "" {
			fmt.Fprintf(w, "    Expected pattern: %s\n", err.Pattern)
		}
	}
}

// PrintWarnings prints validation warnings.
func (r *ValidationResult) PrintWarnings(w io.Writer) {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Fprintln(w, "⚠️  Validation Warnings:")

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  %s\n", warn)
	}
}
