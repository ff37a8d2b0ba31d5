// Package posts reads and writes the generated post files of a site.
package posts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"stpicks/internal/logger"
	"stpicks/internal/models"
	"stpicks/internal/resolver"
	"stpicks/pkg/frontmatter"
)

// PermalinkKey is the front matter key storing a post's source URL.
const PermalinkKey = "fb_permalink"

// ListRecords returns every post file in postsDir with the permalink stored in
// its front matter. Files that cannot be parsed are returned with an empty
// permalink. A missing directory yields no records.
func ListRecords(postsDir string, log *logger.Logger) ([]models.OutputRecord, error) {
	entries, err := os.ReadDir(postsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read posts directory: %w", err)
	}

	var records []models.OutputRecord

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != resolver.PostExt {
			continue
		}

		path := filepath.Join(postsDir, entry.Name())
		record := models.OutputRecord{
			Identifier: strings.TrimSuffix(entry.Name(), resolver.PostExt),
			Path:       path,
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		fields, _, err := frontmatter.ParseFields(string(content))
		if err != nil {
			log.Warn("Unreadable front matter; post cannot be matched by permalink", "path", path, "error", err)
		} else {
			record.Permalink = resolver.NormalizePermalink(fields.String(PermalinkKey))
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Identifier < records[j].Identifier
	})

	return records, nil
}

// LoadIndex builds the immutable existing-record index for one run.
// When two files store the same permalink the first in name order wins.
func LoadIndex(postsDir string, log *logger.Logger) (*resolver.Index, error) {
	records, err := ListRecords(postsDir, log)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string)
	identifiers := make([]string, 0, len(records))

	for _, r := range records {
		identifiers = append(identifiers, r.Identifier)

		if r.Permalink == "" {
			continue
		}

		if prev, dup := paths[r.Permalink]; dup {
			log.Warn("Permalink stored twice", "permalink", r.Permalink, "kept", prev, "ignored", r.Path)

			continue
		}

		paths[r.Permalink] = r.Path
	}

	idx := resolver.NewIndex(paths, identifiers)
	log.Debug("Loaded post index", "dir", postsDir, "files", len(records), "permalinks", idx.Len())

	return idx, nil
}
