package posts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"stpicks/internal/models"
)

// Writer persists rendered post content.
type Writer interface {
	Write(path string, content []byte) (models.WriteStatus, error)
}

// Store writes post files with full-replace semantics.
type Store struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewStore creates a file store.
func NewStore() *Store {
	return &Store{dirPerm: 0755, filePerm: 0644}
}

// Write replaces the file at path with content, creating parent directories.
// Identical content is left untouched and reported as skipped.
func (s *Store) Write(path string, content []byte) (models.WriteStatus, error) {
	existing, err := os.ReadFile(path)

	status := models.StatusCreated

	switch {
	case err == nil:
		if bytes.Equal(existing, content) {
			return models.StatusSkipped, nil
		}

		status = models.StatusUpdated
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), s.dirPerm); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, content, s.filePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return status, nil
}
