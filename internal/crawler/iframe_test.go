package crawler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embedSnippet = `<iframe src="https://www.facebook.com/plugins/post.php?href=https%3A%2F%2Fwww.facebook.com%2Fphoto%2F%3Ffbid%3D205551016270796%26set%3Da.157112844447947&show_text=true&width=500" width="500" height="659" style="border:none;overflow:hidden" scrolling="no" frameborder="0"></iframe>`

func TestExtractPostURL(t *testing.T) {
	got, err := ExtractPostURL(embedSnippet)
	require.NoError(t, err)
	assert.Equal(t, "https://www.facebook.com/photo/?fbid=205551016270796&set=a.157112844447947", got)
}

func TestExtractPostURL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		wantErr error
	}{
		{"no iframe", `<div>nothing</div>`, ErrNoIframe},
		{"no src", `<iframe width="500"></iframe>`, ErrNoSrc},
		{"no href", `<iframe src="https://www.facebook.com/plugins/post.php?show_text=true"></iframe>`, ErrNoHref},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractPostURL(tt.snippet)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ExtractPostURL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseIframes(t *testing.T) {
	doc := "<p>week 1</p>\n" + embedSnippet + "\n<p>week 2</p>\n" +
		`<iframe src="https://www.facebook.com/plugins/post.php?href=https%3A%2F%2Fwww.facebook.com%2Fstpicks%2Fposts%2F209013199257911"></iframe>`

	snippets, err := ParseIframes(doc)
	require.NoError(t, err)
	require.Len(t, snippets, 2)

	first, err := ExtractPostURL(snippets[0])
	require.NoError(t, err)
	assert.Equal(t, "https://www.facebook.com/photo/?fbid=205551016270796&set=a.157112844447947", first)

	second, err := ExtractPostURL(snippets[1])
	require.NoError(t, err)
	assert.Equal(t, "https://www.facebook.com/stpicks/posts/209013199257911", second)
}

func TestReadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iframes.html")
	require.NoError(t, os.WriteFile(path, []byte(embedSnippet), 0644))

	got, err := ReadLocalFile(path)
	require.NoError(t, err)
	assert.Equal(t, embedSnippet, got)

	_, err = ReadLocalFile(filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}
