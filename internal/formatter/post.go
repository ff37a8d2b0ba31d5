package formatter

import (
	"fmt"
	"path"
	"strings"

	"stpicks/internal/config"
	"stpicks/internal/resolver"
	"stpicks/pkg/frontmatter"
	"stpicks/pkg/utils"
)

// Renderer produces the full content of post files.
type Renderer struct {
	posts       config.PostsConfig
	imagePrefix string
	strings     *utils.StringHelper
}

// NewRenderer creates a renderer from the posts settings. imagePrefix is the
// site URL path images are served under.
func NewRenderer(posts config.PostsConfig, imagePrefix string) *Renderer {
	return &Renderer{
		posts:       posts,
		imagePrefix: strings.TrimRight(imagePrefix, "/"),
		strings:     utils.NewStringHelper(),
	}
}

// Embed renders a post whose layout embeds the source post itself.
func (r *Renderer) Embed(target resolver.Target, title string) ([]byte, error) {
	return r.render(r.posts.EmbedLayout, target, title, r.posts.EmbedBody)
}

// Iframe renders an imported post wrapping the literal embed snippet.
func (r *Renderer) Iframe(target resolver.Target, title, iframe string) ([]byte, error) {
	body := fmt.Sprintf("<div class=\"fb-embed-wrap\">\n  %s\n</div>\n\n%s",
		strings.TrimSpace(iframe), r.link(target.Permalink))

	return r.render(r.posts.ImportLayout, target, title, body)
}

// Image renders an imported post showing a downloaded image file.
func (r *Renderer) Image(target resolver.Target, title, file string) ([]byte, error) {
	src := path.Join(r.imagePrefix, file)
	if !strings.HasPrefix(src, "/") {
		src = "/" + src
	}

	body := fmt.Sprintf("![%s]({{ %q | relative_url }})\n\n%s",
		escapeAlt(r.title(title)), src, r.link(target.Permalink))

	return r.render(r.posts.ImportLayout, target, title, body)
}

func (r *Renderer) render(layout string, target resolver.Target, title, body string) ([]byte, error) {
	fm := frontmatter.Frontmatter{
		Layout:     layout,
		Title:      r.title(title),
		Permalink:  target.Permalink,
		Categories: r.posts.Categories,
		Date:       target.Date,
	}

	out, err := frontmatter.Render(fm, body)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", target.Identifier, err)
	}

	return out, nil
}

func (r *Renderer) title(title string) string {
	t := r.strings.NormalizeWhitespace(title)
	if t == "" {
		t = r.posts.DefaultTitle
	}

	return r.strings.TruncateWidth(t, r.posts.MaxTitleWidth)
}

func (r *Renderer) link(permalink string) string {
	return fmt.Sprintf("[%s](%s)", r.posts.LinkText, permalink)
}

func escapeAlt(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
