package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stpicks/internal/models"
)

// DateLayout is the date prefix format of every identifier.
const DateLayout = "2006-01-02"

// PostExt is the extension of output record files.
const PostExt = ".md"

// Resolver errors.
var (
	ErrEmptyURL = errors.New("reference has no source URL")
)

var (
	datedIdentifierPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-(.+)$`)
	suffixPattern          = regexp.MustCompile(`^(.+)-(\d{2,})$`)
)

// Index is the immutable view of records already on disk: normalized
// permalink to record path, plus every identifier in use.
type Index struct {
	paths map[string]string
	taken map[string]struct{}
}

// NewIndex builds an Index from permalink to path pairs and the identifiers
// (file stems) present in the output directory. Permalinks are normalized.
func NewIndex(paths map[string]string, identifiers []string) *Index {
	idx := &Index{
		paths: make(map[string]string, len(paths)),
		taken: make(map[string]struct{}, len(identifiers)),
	}

	for permalink, path := range paths {
		if key := NormalizePermalink(permalink); key != "" {
			idx.paths[key] = path
		}
	}

	for _, id := range identifiers {
		idx.taken[id] = struct{}{}
	}

	return idx
}

// Lookup returns the path of the record storing permalink.
func (i *Index) Lookup(permalink string) (string, bool) {
	if i == nil {
		return "", false
	}

	path, ok := i.paths[NormalizePermalink(permalink)]

	return path, ok
}

// Taken reports whether identifier is already used by a file.
func (i *Index) Taken(identifier string) bool {
	if i == nil {
		return false
	}

	_, ok := i.taken[identifier]

	return ok
}

// Len returns the number of known permalinks.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}

	return len(i.paths)
}

// Target is where a reference will be written.
type Target struct {
	Identifier string
	Slug       string
	Path       string
	Permalink  string
	Date       string
	Existing   bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock used for references without a date.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// Resolver maps references to targets for one run. It is not safe for
// concurrent use.
type Resolver struct {
	postsDir string
	index    *Index
	now      func() time.Time

	taken    map[string]struct{} // identifiers claimed in this run
	counters map[string]int
	assigned map[string]Target
}

// New creates a Resolver writing new records under postsDir.
func New(postsDir string, index *Index, opts ...Option) *Resolver {
	r := &Resolver{
		postsDir: postsDir,
		index:    index,
		now:      time.Now,
		taken:    make(map[string]struct{}),
		counters: make(map[string]int),
		assigned: make(map[string]Target),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the target for ref. A reference whose normalized URL is
// stored by an existing record, or was already resolved in this run, maps to
// that record; the record keeps its path and takes the reference's date when
// one is given. Otherwise a fresh `{date}-{slug}` identifier is assigned,
// suffixed with -02, -03, ... while the base identifier is taken.
func (r *Resolver) Resolve(ref models.PostReference) (Target, error) {
	permalink := NormalizePermalink(ref.URL)
	if permalink == "" {
		return Target{}, ErrEmptyURL
	}

	if t, ok := r.assigned[permalink]; ok {
		t.Existing = true

		return t, nil
	}

	if path, ok := r.index.Lookup(permalink); ok {
		id := strings.TrimSuffix(filepath.Base(path), PostExt)
		t := Target{
			Identifier: id,
			Slug:       slugOf(id),
			Path:       path,
			Permalink:  permalink,
			Date:       r.existingDate(id, ref),
			Existing:   true,
		}
		r.assigned[permalink] = t

		return t, nil
	}

	date := r.dateFor(ref)
	slug := DeriveIdentifier(permalink)
	base := date + "-" + slug

	id := r.claim(base)
	t := Target{
		Identifier: id,
		Slug:       slugOf(id),
		Path:       filepath.Join(r.postsDir, id+PostExt),
		Permalink:  permalink,
		Date:       date,
	}
	r.assigned[permalink] = t

	return t, nil
}

// existingDate is the front matter date of a matched record: the reference's
// own date when it has one, else the date prefix of the file.
func (r *Resolver) existingDate(identifier string, ref models.PostReference) string {
	if ref.HasDate() {
		return ref.Date.Format(DateLayout)
	}

	return dateOf(identifier, r.now().Format(DateLayout))
}

func (r *Resolver) dateFor(ref models.PostReference) string {
	if ref.HasDate() {
		return ref.Date.Format(DateLayout)
	}

	return r.now().Format(DateLayout)
}

func (r *Resolver) used(identifier string) bool {
	if _, ok := r.taken[identifier]; ok {
		return true
	}

	return r.index.Taken(identifier)
}

func (r *Resolver) claim(base string) string {
	if !r.used(base) {
		r.taken[base] = struct{}{}

		return base
	}

	n, ok := r.counters[base]
	if !ok {
		n = r.highestSuffix(base)
	}

	var id string

	for {
		n++

		id = fmt.Sprintf("%s-%02d", base, n)
		if !r.used(id) {
			break
		}
	}

	r.counters[base] = n
	r.taken[id] = struct{}{}

	return id
}

// highestSuffix returns the largest numeric suffix already used for base.
func (r *Resolver) highestSuffix(base string) int {
	highest := 1

	sets := []map[string]struct{}{r.taken}
	if r.index != nil {
		sets = append(sets, r.index.taken)
	}

	for _, set := range sets {
		for id := range set {
			m := suffixPattern.FindStringSubmatch(id)
			if m == nil || m[1] != base {
				continue
			}

			if n, err := strconv.Atoi(m[2]); err == nil && n > highest {
				highest = n
			}
		}
	}

	return highest
}

func slugOf(identifier string) string {
	if m := datedIdentifierPattern.FindStringSubmatch(identifier); m != nil {
		return m[1]
	}

	return identifier
}

func dateOf(identifier, fallback string) string {
	if len(identifier) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, identifier[:len(DateLayout)]); err == nil {
			return identifier[:len(DateLayout)]
		}
	}

	return fallback
}
