package pipeline

import (
	"context"
	"errors"
	"fmt"

	"stpicks/internal/config"
	"stpicks/internal/entries"
	"stpicks/internal/feed"
	"stpicks/internal/logger"
	"stpicks/internal/models"
)

// Generator writes embed posts for the entries of the data file.
type Generator struct {
	base
	dataPath string
}

// NewGenerator creates a generator for the site described by cfg.
func NewGenerator(cfg *config.Config, log *logger.Logger, opts ...Option) *Generator {
	return &Generator{
		base:     newBase(cfg, log, opts),
		dataPath: cfg.DataPath(),
	}
}

// Run upserts one post per entry. Entries without a url are skipped; other
// per-entry failures are recorded in the result and the batch continues.
func (g *Generator) Run(ctx context.Context, list []entries.Entry) (*Result, error) {
	res, err := g.newResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to load existing posts: %w", err)
	}

	result := &Result{}

	for i, entry := range list {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ref, err := entry.Reference()
		if errors.Is(err, entries.ErrMissingURL) {
			g.logger.Warn("Skipping entry without url", "index", i)
			result.Skipped++

			continue
		}

		if err != nil {
			g.logger.Error("Invalid entry", "index", i, "url", entry.URL, "error", err)
			result.fail(i, entry.URL, err)

			continue
		}

		target, err := res.Resolve(ref)
		if err != nil {
			result.fail(i, ref.URL, err)

			continue
		}

		content, err := g.renderer.Embed(target, ref.Title)
		if err != nil {
			result.fail(i, ref.URL, err)

			continue
		}

		status, err := g.writer.Write(target.Path, content)
		if err != nil {
			g.logger.Error("Failed to write post", "path", target.Path, "error", err)
			result.fail(i, ref.URL, err)

			continue
		}

		g.logger.Debug("Upserted post", "path", target.Path, "status", status, "existing", target.Existing)

		result.Posts = append(result.Posts, models.GeneratedPost{
			Record: models.OutputRecord{
				Identifier: target.Identifier,
				Path:       target.Path,
				Permalink:  target.Permalink,
			},
			Title:  ref.Title,
			Asset:  "embed",
			Status: status,
		})
	}

	g.logger.Info("Generation finished",
		"created", result.Count(models.StatusCreated),
		"updated", result.Count(models.StatusUpdated),
		"unchanged", result.Count(models.StatusSkipped),
		"skipped", result.Skipped,
		"errors", len(result.Errors))

	return result, nil
}

// Sync merges the items of src into the data file. The file is rewritten only
// when new items were added. A failing source is logged and leaves the data
// file untouched.
func (g *Generator) Sync(ctx context.Context, src feed.Source) ([]entries.Entry, error) {
	list, err := entries.Load(g.dataPath, g.logger)
	if err != nil {
		return nil, err
	}

	if src == nil {
		return list, nil
	}

	fetched, err := src.Fetch(ctx)
	if err != nil {
		g.logger.Warn("Feed fetch failed", "source", src.Name(), "error", err)

		return list, nil
	}

	merged, added := entries.Merge(list, fetched)
	if added == 0 {
		g.logger.Info("Feed has no new posts", "source", src.Name(), "fetched", len(fetched))

		return merged, nil
	}

	if err := entries.Save(g.dataPath, merged); err != nil {
		return nil, err
	}

	g.logger.Info("Merged feed into data file", "source", src.Name(), "added", added, "path", g.dataPath)

	return merged, nil
}

// RunFile syncs the optional feed and then runs the batch over the data file.
func (g *Generator) RunFile(ctx context.Context, src feed.Source) (*Result, error) {
	list, err := g.Sync(ctx, src)
	if err != nil {
		return nil, err
	}

	return g.Run(ctx, list)
}

// DataPath returns the data file the generator reads.
func (g *Generator) DataPath() string {
	return g.dataPath
}
