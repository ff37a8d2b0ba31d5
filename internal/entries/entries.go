// Package entries loads and saves the YAML list of post references kept in
// the site's data directory.
package entries

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stpicks/internal/logger"
	"stpicks/internal/models"
	"stpicks/internal/resolver"
)

// Entry errors.
var (
	ErrNotSequence = errors.New("data file must contain a list of posts")
	ErrNotMapping  = errors.New("entry is not a mapping")
	ErrMissingURL  = errors.New("entry has no url")
	ErrInvalidDate = errors.New("invalid date")
)

// Entry is one item of the data file. Keys other than url, title and date are
// kept in Extra and written back unchanged.
type Entry struct {
	URL   string         `yaml:"url"`
	Title string         `yaml:"title,omitempty"`
	Date  string         `yaml:"date,omitempty"`
	Extra map[string]any `yaml:",inline"`
}

// Validate checks the fields a post reference needs.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.URL) == "" {
		return ErrMissingURL
	}

	return nil
}

// Reference converts the entry into a post reference. An entry without a date
// yields a reference without one.
func (e Entry) Reference() (models.PostReference, error) {
	if err := e.Validate(); err != nil {
		return models.PostReference{}, err
	}

	ref := models.PostReference{
		URL:   strings.TrimSpace(e.URL),
		Title: strings.TrimSpace(e.Title),
	}

	if strings.TrimSpace(e.Date) != "" {
		d, err := ParseDate(e.Date)
		if err != nil {
			return models.PostReference{}, err
		}

		ref.Date = d
	}

	return ref, nil
}

// Load reads the entries in path. A missing file yields no entries. Items that
// are not mappings or lack a url are skipped with a warning.
func Load(path string, log *logger.Logger) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("Data file not found", "path", path)

			return nil, nil
		}

		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return nil, nil
	}

	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s: %w", path, ErrNotSequence)
	}

	var out []Entry

	for i, item := range root.Content {
		entry, err := decodeEntry(item)
		if err != nil {
			log.Warn("Skipping entry", "path", path, "index", i, "line", item.Line, "error", err)

			continue
		}

		out = append(out, entry)
	}

	return out, nil
}

func decodeEntry(node *yaml.Node) (Entry, error) {
	if node.Kind != yaml.MappingNode {
		return Entry{}, ErrNotMapping
	}

	var e Entry
	if err := node.Decode(&e); err != nil {
		return Entry{}, fmt.Errorf("failed to decode entry: %w", err)
	}

	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	return e, nil
}

// Save writes entries to path, creating parent directories.
func Save(path string, list []Entry) error {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if list == nil {
		list = []Entry{}
	}

	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}

	return nil
}

// Merge appends the fetched entries whose normalized url is not already
// present and returns the result with the number added.
func Merge(list, fetched []Entry) ([]Entry, int) {
	seen := make(map[string]struct{}, len(list)+len(fetched))
	for _, e := range list {
		seen[resolver.NormalizePermalink(e.URL)] = struct{}{}
	}

	added := 0

	for _, e := range fetched {
		key := resolver.NormalizePermalink(e.URL)
		if key == "" {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		list = append(list, e)
		added++
	}

	return list, added
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	resolver.DateLayout,
}

// ParseDate parses an ISO-8601 date or timestamp. When no full form matches
// the leading YYYY-MM-DD is parsed on its own.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	if len(value) >= len(resolver.DateLayout) {
		if t, err := time.Parse(resolver.DateLayout, value[:len(resolver.DateLayout)]); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}
