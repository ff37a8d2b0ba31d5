package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Iframe errors.
var (
	ErrNoIframe = errors.New("no iframe found")
	ErrNoSrc    = errors.New("iframe has no src")
	ErrNoHref   = errors.New("iframe src has no href parameter")
)

// ReadLocalFile reads content from a local file path.
func ReadLocalFile(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return string(content), nil
}

// ParseIframes returns every <iframe> element in document as HTML.
func ParseIframes(document string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var out []string

	var renderErr error

	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		snippet, err := goquery.OuterHtml(s)
		if err != nil {
			renderErr = fmt.Errorf("failed to render iframe: %w", err)

			return false
		}

		out = append(out, snippet)

		return true
	})

	if renderErr != nil {
		return nil, renderErr
	}

	return out, nil
}

// ExtractPostURL returns the post URL carried in the href parameter of the
// first iframe's src.
func ExtractPostURL(snippet string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	iframe := doc.Find("iframe").First()
	if iframe.Length() == 0 {
		return "", ErrNoIframe
	}

	src := strings.TrimSpace(iframe.AttrOr("src", ""))
	if src == "" {
		return "", ErrNoSrc
	}

	parsed, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("invalid iframe src %q: %w", src, err)
	}

	href := strings.TrimSpace(parsed.Query().Get("href"))
	if href == "" {
		return "", fmt.Errorf("%w: %s", ErrNoHref, src)
	}

	return href, nil
}
