// Package store persists projects as one YAML document per slug on the local filesystem.
package store

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/hash"
	"github.com/lehuagavin/genslides/internal/id"
	"github.com/lehuagavin/genslides/internal/validation"
)

// OutlineFile is the per-project document name.
const OutlineFile = "outline.yml"

// maxUpdateAttempts bounds retries in Update when the document changes outside this process.
const maxUpdateAttempts = 5

// Observer is told about persisted changes. Calls happen after the slug lock is released.
type Observer interface {
	ProjectSaved(p *domain.Project)
	ProjectDeleted(slug string)
}

// NoopObserver ignores all notifications.
type NoopObserver struct{}

// ProjectSaved is a no-op.
func (NoopObserver) ProjectSaved(*domain.Project) {}

// ProjectDeleted is a no-op.
func (NoopObserver) ProjectDeleted(string) {}

// Options configures a Store.
type Options struct {
	BasePath      string
	DefaultEngine string
	Pricing       domain.Pricing
	Logger        *slog.Logger
	Now           func() time.Time // defaults to time.Now
}

// Store loads and saves projects under BasePath/{slug}/outline.yml.
//
// Every load and save holds the slug's lock for its duration, and Update holds it across
// the whole read-modify-write, so writers in this process never conflict. Save compares
// the caller's Version with the document on disk: a stale copy, or a document rewritten by
// another process, fails with ErrVersionConflict instead of discarding that change.
type Store struct {
	root          string
	defaultEngine string
	pricing       domain.Pricing
	logger        *slog.Logger
	now           func() time.Time
	locks         *LockRegistry

	observer Observer

	// fingerprints of the bytes this process last wrote, per slug
	writtenMu sync.Mutex
	written   map[string]string
}

// New creates a store rooted at opts.BasePath, creating the directory if needed.
func New(opts Options) (*Store, error) {
	if opts.BasePath == "" {
		return nil, errors.New("store base path is required")
	}
	if err := os.MkdirAll(opts.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		root:          opts.BasePath,
		defaultEngine: opts.DefaultEngine,
		pricing:       opts.Pricing,
		logger:        opts.Logger,
		now:           opts.Now,
		locks:         NewLockRegistry(),
		observer:      NoopObserver{},
		written:       make(map[string]string),
	}, nil
}

// SetObserver registers the change observer. Set after construction to avoid
// circular dependencies with the search index.
func (s *Store) SetObserver(o Observer) {
	if o == nil {
		o = NoopObserver{}
	}
	s.observer = o
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

// Pricing returns the unit prices used to derive estimated cost.
func (s *Store) Pricing() domain.Pricing { return s.pricing }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// Locks exposes the per-slug lock registry.
func (s *Store) Locks() *LockRegistry { return s.locks }

// ProjectDir returns the directory holding a project's files.
func (s *Store) ProjectDir(slug string) string {
	return filepath.Join(s.root, slug)
}

func (s *Store) outlinePath(slug string) string {
	return filepath.Join(s.root, slug, OutlineFile)
}

// Exists reports whether slug has a document.
func (s *Store) Exists(ctx context.Context, slug string) (bool, error) {
	if err := s.check(ctx, slug); err != nil {
		return false, err
	}
	_, err := os.Stat(s.outlinePath(slug))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat project %s: %w", slug, err)
	}
	return true, nil
}

// Load reads the project for slug. Returns ErrProjectNotFound if absent and
// ErrCorrupt if the document cannot be parsed.
func (s *Store) Load(ctx context.Context, slug string) (*domain.Project, error) {
	if err := s.check(ctx, slug); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(slug)
	defer unlock()

	return s.read(slug)
}

// read loads without locking. Caller must hold the slug lock.
func (s *Store) read(slug string) (*domain.Project, error) {
	data, err := os.ReadFile(s.outlinePath(slug))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", slug, err)
	}
	return s.decode(slug, data)
}

func (s *Store) decode(slug string, data []byte) (*domain.Project, error) {
	var p domain.Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, slug, err)
	}
	// An empty or scalar document unmarshals without error but is not a project.
	if p.CreatedAt.IsZero() && p.Title == "" && p.Slides == nil {
		return nil, fmt.Errorf("%w: %s: empty document", ErrCorrupt, slug)
	}

	p.Slug = slug
	if p.Title == "" {
		p.Title = domain.DefaultProjectTitle
	}
	if p.Slides == nil {
		p.Slides = []*domain.Slide{}
	}
	for _, sl := range p.Slides {
		if sl.Images == nil {
			sl.Images = []*domain.SlideImage{}
		}
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		p.UpdatedAt = p.CreatedAt
	}
	p.Cost.Normalize(s.pricing)
	return &p, nil
}

// Save writes p, incrementing its Version. It fails with ErrVersionConflict when the
// document on disk has a different version than p was loaded with.
func (s *Store) Save(ctx context.Context, p *domain.Project) error {
	if err := s.check(ctx, p.Slug); err != nil {
		return err
	}

	unlock := s.locks.Lock(p.Slug)
	err := s.write(p, false)
	unlock()

	if err != nil {
		return err
	}
	s.observer.ProjectSaved(p)
	return nil
}

// write persists p. Caller must hold the slug lock. With createOnly set, an existing
// document yields ErrProjectExists.
func (s *Store) write(p *domain.Project, createOnly bool) error {
	current, err := s.read(p.Slug)
	switch {
	case errors.Is(err, ErrProjectNotFound):
		if p.Version != 0 {
			return fmt.Errorf("%w: %s was deleted", ErrVersionConflict, p.Slug)
		}
	case err != nil:
		return err
	case createOnly:
		return fmt.Errorf("%w: %s", ErrProjectExists, p.Slug)
	case current.Version != p.Version:
		return fmt.Errorf("%w: %s at version %d, have %d", ErrVersionConflict, p.Slug, current.Version, p.Version)
	}

	p.Version++
	p.Cost.Normalize(s.pricing)

	data, err := yaml.Marshal(p)
	if err != nil {
		p.Version--
		return fmt.Errorf("marshal project %s: %w", p.Slug, err)
	}

	if err := writeFileAtomic(s.outlinePath(p.Slug), data); err != nil {
		p.Version--
		return fmt.Errorf("write project %s: %w", p.Slug, err)
	}

	s.writtenMu.Lock()
	s.written[p.Slug] = hash.Bytes(data)
	s.writtenMu.Unlock()

	return nil
}

// Create persists a new default project. Returns ErrProjectExists if slug already has one.
func (s *Store) Create(ctx context.Context, slug string) (*domain.Project, error) {
	if err := s.check(ctx, slug); err != nil {
		return nil, err
	}

	p := domain.NewProject(slug, s.defaultEngine, s.now())

	unlock := s.locks.Lock(slug)
	err := s.write(p, true)
	unlock()

	if err != nil {
		return nil, err
	}
	s.logger.Info("project created", "slug", slug)
	s.observer.ProjectSaved(p)
	return p, nil
}

// GetOrCreate loads slug, creating a default project if none exists.
func (s *Store) GetOrCreate(ctx context.Context, slug string) (*domain.Project, error) {
	p, err := s.Load(ctx, slug)
	if !errors.Is(err, ErrProjectNotFound) {
		return p, err
	}

	p, err = s.Create(ctx, slug)
	if errors.Is(err, ErrProjectExists) {
		// Lost a creation race; the winner's document is authoritative.
		return s.Load(ctx, slug)
	}
	return p, err
}

// Update applies fn to a freshly loaded project and saves it while holding the slug lock,
// so concurrent updates in this process are serialized and all of them apply. A version
// mismatch can then only come from another process writing the document; Update reloads
// and retries in that case. fn may run more than once, must not perform I/O and must not
// call back into the store for the same slug. An error from fn aborts without saving.
func (s *Store) Update(ctx context.Context, slug string, fn func(p *domain.Project) error) (*domain.Project, error) {
	if err := s.check(ctx, slug); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		p, err := s.updateLocked(slug, fn)
		if err == nil {
			s.observer.ProjectSaved(p)
			return p, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("retrying project update after external change", "slug", slug, "attempt", attempt)
	}
	return nil, lastErr
}

func (s *Store) updateLocked(slug string, fn func(p *domain.Project) error) (*domain.Project, error) {
	unlock := s.locks.Lock(slug)
	defer unlock()

	p, err := s.read(slug)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.write(p, false); err != nil {
		return nil, err
	}
	return p, nil
}

// List loads every project with a readable document, newest first. Corrupt documents
// are logged and skipped.
func (s *Store) List(ctx context.Context) ([]*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]*domain.Project, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !validation.IsIdentifier(e.Name()) {
			continue
		}
		p, err := s.Load(ctx, e.Name())
		if errors.Is(err, ErrProjectNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("skipping unreadable project", "slug", e.Name(), "error", err)
			continue
		}
		projects = append(projects, p)
	}

	slices.SortStableFunc(projects, func(a, b *domain.Project) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
	return projects, nil
}

// Delete removes the project's directory tree. Returns false if there was nothing to delete.
func (s *Store) Delete(ctx context.Context, slug string) (bool, error) {
	if err := s.check(ctx, slug); err != nil {
		return false, err
	}

	dir := s.ProjectDir(slug)

	unlock := s.locks.Lock(slug)
	_, statErr := os.Stat(dir)
	existed := statErr == nil
	var err error
	if existed {
		err = os.RemoveAll(dir)
	}
	unlock()

	if err != nil {
		return false, fmt.Errorf("delete project %s: %w", slug, err)
	}
	if existed {
		s.writtenMu.Lock()
		delete(s.written, slug)
		s.writtenMu.Unlock()

		s.logger.Info("project deleted", "slug", slug)
		s.observer.ProjectDeleted(slug)
	}
	return existed, nil
}

// GenerateSlideID returns a new slide id. No check is made against existing slides.
func (s *Store) GenerateSlideID() (string, error) {
	return id.Slide()
}

// IsOwnWrite reports whether data is exactly what this process last wrote for slug.
// Used to tell external edits of outline.yml apart from the store's own saves.
func (s *Store) IsOwnWrite(slug string, data []byte) bool {
	s.writtenMu.Lock()
	defer s.writtenMu.Unlock()
	fp, ok := s.written[slug]
	return ok && fp == hash.Bytes(data)
}

// Reload reads slug from disk and notifies the observer, as if it had just been saved.
// Used after external edits.
func (s *Store) Reload(ctx context.Context, slug string) (*domain.Project, error) {
	p, err := s.Load(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.observer.ProjectSaved(p)
	return p, nil
}

func (s *Store) check(ctx context.Context, slug string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validation.IsIdentifier(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := bytes.NewReader(data).WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
