// Package frontmatter reads and writes the YAML metadata block at the top of a post file.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the metadata block.
const Delimiter = "---"

// Front matter errors.
var (
	ErrNoFrontmatter   = errors.New("no front matter block found")
	ErrUnterminated    = errors.New("front matter block is not terminated")
	ErrInvalidMetadata = errors.New("invalid front matter")
)

// Frontmatter is the metadata written at the top of every generated post.
// Field order is the order keys are rendered in.
type Frontmatter struct {
	Layout     string   `yaml:"layout"`
	Title      string   `yaml:"title"`
	Permalink  string   `yaml:"fb_permalink,omitempty"`
	Categories []string `yaml:"categories,flow"`
	Date       string   `yaml:"date"`
}

// Split separates the YAML block from the body. The first line must be the
// delimiter and the block ends at the next line consisting only of the delimiter.
func Split(content string) (string, string, error) {
	content = strings.TrimPrefix(content, "\ufeff")

	first, rest, found := strings.Cut(content, "\n")
	if strings.TrimRight(first, "\r ") != Delimiter {
		return "", content, ErrNoFrontmatter
	}

	if !found {
		return "", content, ErrUnterminated
	}

	var block strings.Builder

	for {
		line, next, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, "\r ") == Delimiter {
			return block.String(), strings.TrimLeft(next, "\r\n"), nil
		}

		if !more {
			return "", content, ErrUnterminated
		}

		block.WriteString(line)
		block.WriteByte('\n')

		rest = next
	}
}

// Parse decodes the front matter of content and returns it with the body.
func Parse(content string) (*Frontmatter, string, error) {
	block, body, err := Split(content)
	if err != nil {
		return nil, body, err
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, body, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	return &fm, body, nil
}

// Fields is the loosely typed view of a front matter block. Hand-edited posts
// may give keys any shape, so readers that only need a few keys use it instead
// of Frontmatter.
type Fields map[string]any

// ParseFields decodes the front matter of content into Fields and returns it
// with the body.
func ParseFields(content string) (Fields, string, error) {
	block, body, err := Split(content)
	if err != nil {
		return nil, body, err
	}

	fields := Fields{}
	if err := yaml.Unmarshal([]byte(block), &fields); err != nil {
		return nil, body, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	return fields, body, nil
}

// String returns the scalar at key as text. Timestamps without a time of day
// are formatted as YYYY-MM-DD. Missing, null and nested values yield "".
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if h, m, sec := v.Clock(); h == 0 && m == 0 && sec == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}

		return v.Format(time.RFC3339)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Render produces the full file content: delimited metadata, a blank line, then body.
// The body always ends with a single newline.
func Render(fm Frontmatter, body string) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	var out bytes.Buffer

	out.WriteString(Delimiter + "\n")
	out.Write(buf.Bytes())
	out.WriteString(Delimiter + "\n\n")
	out.WriteString(strings.TrimRight(body, "\n"))
	out.WriteString("\n")

	return out.Bytes(), nil
}
