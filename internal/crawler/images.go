package crawler

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ImageFetcher stores a post's image locally.
type ImageFetcher interface {
	Download(ctx context.Context, imageURL, slug string) (string, error)
}

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ImageDownloader saves images into a directory as {slug}.{ext}.
type ImageDownloader struct {
	fetcher Fetcher
	dir     string
}

// NewImageDownloader creates a downloader writing into dir.
func NewImageDownloader(fetcher Fetcher, dir string) *ImageDownloader {
	return &ImageDownloader{fetcher: fetcher, dir: dir}
}

// Download fetches imageURL and returns the saved file name.
func (d *ImageDownloader) Download(ctx context.Context, imageURL, slug string) (string, error) {
	page, err := d.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}

	name := slug + "." + ImageExtension(page.ContentType)

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(d.dir, name), page.Body, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return name, nil
}

// ImageExtension maps a Content-Type header to a file extension, jpg when unknown.
func ImageExtension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}

	if ext, ok := imageExtensions[strings.ToLower(mediaType)]; ok {
		return ext
	}

	return "jpg"
}
