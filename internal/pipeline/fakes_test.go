package pipeline

import (
	"bytes"
	"context"
	"errors"
	"time"

	"stpicks/internal/config"
	"stpicks/internal/entries"
	"stpicks/internal/logger"
	"stpicks/internal/models"
	"stpicks/internal/resolver"
)

var (
	errDiskFull = errors.New("disk full")
	errOffline  = errors.New("offline")
)

func fixedNow() time.Time {
	return time.Date(2025, 12, 14, 9, 30, 0, 0, time.UTC)
}

func testConfig(siteDir string) *config.Config {
	cfg := config.Default()
	cfg.Site.Dir = siteDir

	return cfg
}

// memWriter keeps written files in memory.
type memWriter struct {
	files map[string][]byte
	fail  map[string]bool
}

func newMemWriter() *memWriter {
	return &memWriter{files: map[string][]byte{}, fail: map[string]bool{}}
}

func (w *memWriter) Write(path string, content []byte) (models.WriteStatus, error) {
	if w.fail[path] {
		return "", errDiskFull
	}

	prev, ok := w.files[path]

	switch {
	case ok && bytes.Equal(prev, content):
		return models.StatusSkipped, nil
	case ok:
		w.files[path] = content

		return models.StatusUpdated, nil
	default:
		w.files[path] = content

		return models.StatusCreated, nil
	}
}

func emptyIndex(string, *logger.Logger) (*resolver.Index, error) {
	return resolver.NewIndex(nil, nil), nil
}

// stubEnricher returns canned metadata per URL.
type stubEnricher struct {
	meta  map[string]models.PageMeta
	calls int
}

func (e *stubEnricher) Enrich(_ context.Context, pageURL string) (models.PageMeta, error) {
	e.calls++

	m, ok := e.meta[pageURL]
	if !ok {
		return models.PageMeta{}, errOffline
	}

	return m, nil
}

// stubImages pretends to save every image except those in fail.
type stubImages struct {
	fail map[string]bool
	got  []string
}

func (s *stubImages) Download(_ context.Context, imageURL, slug string) (string, error) {
	if s.fail[imageURL] {
		return "", errOffline
	}

	s.got = append(s.got, slug)

	return slug + ".png", nil
}

// stubSource is a feed.Source returning fixed entries.
type stubSource struct {
	items []entries.Entry
	err   error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(context.Context) ([]entries.Entry, error) {
	return s.items, s.err
}
