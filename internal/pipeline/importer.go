package pipeline

import (
	"context"
	"fmt"
	"path"
	"time"

	"stpicks/internal/config"
	"stpicks/internal/crawler"
	"stpicks/internal/logger"
	"stpicks/internal/models"
	"stpicks/pkg/utils"
)

// Asset kinds reported for imported posts.
const (
	AssetIframe = "iframe"
)

// Enricher extracts page metadata for a post URL.
type Enricher interface {
	Enrich(ctx context.Context, pageURL string) (models.PageMeta, error)
}

// ImportOptions controls one import batch.
type ImportOptions struct {
	// Date is the date prefix of new posts and replaces the date of re-imported
	// ones. Zero means today for new posts and keeps existing dates.
	Date time.Time
	// Images downloads og:image and renders an image post when it succeeds.
	Images bool
}

// Importer turns literal embed snippets into posts.
type Importer struct {
	base
	enricher      Enricher
	images        crawler.ImageFetcher
	fallbackTitle string
	imagePrefix   string
	http          *utils.HTTPHelper
}

// NewImporter creates an importer. images may be nil when downloads are never requested.
func NewImporter(cfg *config.Config, enricher Enricher, images crawler.ImageFetcher, log *logger.Logger, opts ...Option) *Importer {
	return &Importer{
		base:          newBase(cfg, log, opts),
		enricher:      enricher,
		images:        images,
		fallbackTitle: cfg.Posts.FallbackTitleFormat,
		imagePrefix:   cfg.Site.ImagesURLPrefix,
		http:          utils.NewHTTPHelper(cfg.Fetch.UserAgent),
	}
}

// Run upserts one post per snippet. Snippets without a usable post URL are
// skipped. Enrichment and image failures fall back to the placeholder title
// and the embed body.
func (im *Importer) Run(ctx context.Context, snippets []string, opts ImportOptions) (*Result, error) {
	res, err := im.newResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to load existing posts: %w", err)
	}

	result := &Result{}
	fallbackCounter := 1

	for i, snippet := range snippets {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		postURL, err := crawler.ExtractPostURL(snippet)
		if err != nil {
			im.logger.Warn("Skipping snippet", "index", i, "error", err)
			result.Skipped++

			continue
		}

		if !im.http.IsValidURL(postURL) {
			im.logger.Warn("Skipping snippet with invalid post URL", "index", i, "url", postURL)
			result.Skipped++

			continue
		}

		target, err := res.Resolve(models.PostReference{URL: postURL, Date: opts.Date})
		if err != nil {
			result.fail(i, postURL, err)

			continue
		}

		meta, err := im.enricher.Enrich(ctx, postURL)
		if err != nil {
			im.logger.Warn("Failed to fetch post page", "url", postURL, "error", err)

			meta = models.PageMeta{}
		}

		title := crawler.TitleFromDescription(meta.Description)
		if title == "" {
			title = fmt.Sprintf(im.fallbackTitle, fallbackCounter)
			fallbackCounter++

			im.logger.Warn("Title fallback used", "slug", target.Slug, "title", title)
		}

		asset := AssetIframe
		imageFile := ""

		if opts.Images {
			imageFile = im.downloadImage(ctx, meta.ImageURL, target.Slug)
		}

		var content []byte
		if imageFile != "" {
			asset = path.Join(im.imagePrefix, imageFile)
			content, err = im.renderer.Image(target, title, imageFile)
		} else {
			content, err = im.renderer.Iframe(target, title, snippet)
		}

		if err != nil {
			result.fail(i, postURL, err)

			continue
		}

		status, err := im.writer.Write(target.Path, content)
		if err != nil {
			im.logger.Error("Failed to write post", "path", target.Path, "error", err)
			result.fail(i, postURL, err)

			continue
		}

		im.logger.Info("Generated post", "path", target.Path, "status", status, "title", title, "asset", asset)

		result.Posts = append(result.Posts, models.GeneratedPost{
			Record: models.OutputRecord{
				Identifier: target.Identifier,
				Path:       target.Path,
				Permalink:  target.Permalink,
			},
			Title:  title,
			Asset:  asset,
			Status: status,
		})
	}

	return result, nil
}

func (im *Importer) downloadImage(ctx context.Context, imageURL, slug string) string {
	if imageURL == "" {
		im.logger.Warn("No image URL found, falling back to iframe", "slug", slug)

		return ""
	}

	if im.images == nil {
		return ""
	}

	file, err := im.images.Download(ctx, imageURL, slug)
	if err != nil {
		im.logger.Warn("Failed to download image", "slug", slug, "error", err)

		return ""
	}

	return file
}
