package pipeline

import (
	"time"

	"stpicks/internal/config"
	"stpicks/internal/formatter"
	"stpicks/internal/logger"
	"stpicks/internal/posts"
	"stpicks/internal/resolver"
)

// IndexLoader returns the existing-record index of a posts directory.
type IndexLoader func(postsDir string, log *logger.Logger) (*resolver.Index, error)

// Option configures a Generator or an Importer.
type Option func(*base)

// WithWriter replaces the file store.
func WithWriter(w posts.Writer) Option {
	return func(b *base) {
		b.writer = w
	}
}

// WithIndexLoader replaces the on-disk index loader.
func WithIndexLoader(l IndexLoader) Option {
	return func(b *base) {
		b.loadIndex = l
	}
}

// WithClock sets the clock used for references without a date.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

// base holds what both batch kinds share.
type base struct {
	postsDir  string
	renderer  *formatter.Renderer
	writer    posts.Writer
	loadIndex IndexLoader
	now       func() time.Time
	logger    *logger.Logger
}

func newBase(cfg *config.Config, log *logger.Logger, opts []Option) base {
	b := base{
		postsDir:  cfg.PostsPath(),
		renderer:  formatter.NewRenderer(cfg.Posts, cfg.Site.ImagesURLPrefix),
		writer:    posts.NewStore(),
		loadIndex: posts.LoadIndex,
		now:       time.Now,
		logger:    log,
	}

	for _, opt := range opts {
		opt(&b)
	}

	return b
}

// newResolver loads the index once for a run.
func (b *base) newResolver(opts ...resolver.Option) (*resolver.Resolver, error) {
	idx, err := b.loadIndex(b.postsDir, b.logger)
	if err != nil {
		return nil, err
	}

	opts = append([]resolver.Option{resolver.WithClock(b.now)}, opts...)

	return resolver.New(b.postsDir, idx, opts...), nil
}
