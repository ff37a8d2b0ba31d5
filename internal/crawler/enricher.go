package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stpicks/internal/models"
)

var bracketTitlePattern = regexp.MustCompile(`\[(.+?)\]`)

// Enricher reads descriptive metadata from a post's page.
type Enricher struct {
	fetcher Fetcher
}

// NewEnricher creates an enricher on top of fetcher.
func NewEnricher(fetcher Fetcher) *Enricher {
	return &Enricher{fetcher: fetcher}
}

// Enrich fetches pageURL and extracts its og:description and og:image.
func (e *Enricher) Enrich(ctx context.Context, pageURL string) (models.PageMeta, error) {
	page, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return models.PageMeta{}, fmt.Errorf("failed to fetch post page: %w", err)
	}

	meta, err := ExtractMeta(page.Body, pageURL)
	if err != nil {
		return models.PageMeta{}, err
	}

	return meta, nil
}

// ExtractMeta parses HTML and returns the Open Graph description and image.
// A relative image URL is resolved against baseURL.
func ExtractMeta(html []byte, baseURL string) (models.PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return models.PageMeta{}, fmt.Errorf("failed to parse html: %w", err)
	}

	meta := models.PageMeta{
		Description: strings.TrimSpace(metaContent(doc, "og:description")),
		ImageURL:    strings.TrimSpace(metaContent(doc, "og:image")),
	}

	if meta.ImageURL != "" {
		meta.ImageURL = resolveReference(baseURL, meta.ImageURL)
	}

	return meta, nil
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First()
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, property)).First()
	}

	return sel.AttrOr("content", "")
}

func resolveReference(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}

	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return b.ResolveReference(r).String()
}

// TitleFromDescription returns the text inside the first pair of square
// brackets, or "" when there is none.
func TitleFromDescription(description string) string {
	m := bracketTitlePattern.FindStringSubmatch(description)
	if m == nil {
		return ""
	}

	return strings.TrimSpace(m[1])
}
