// Package images stores generated slide images, thumbnails and style images, and converts provider output to JPEG.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lehuagavin/genslides/internal/domain"
)

// ErrNotFound is returned when a requested blob does not exist.
var ErrNotFound = errors.New("image not found")

// DefaultURLPrefix is the public path the storage root is served under.
const DefaultURLPrefix = "/static/slides"

const (
	imagesDir      = "images"
	styleDir       = "style"
	candidatesDir  = "candidates"
	styleFile      = "style.jpg"
	thumbSuffix    = "_thumb"
	imageExtension = ".jpg"
)

// Storage manages image files under one root, laid out per project:
//
//	{root}/{slug}/images/{sid}/{hash}.jpg
//	{root}/{slug}/images/{sid}/{hash}_thumb.jpg
//	{root}/{slug}/style/style.jpg
//	{root}/{slug}/style/candidates/{id}.jpg
//
// Paths are derived from identifiers alone, so URLs never need a lookup.
// Callers validate identifiers before they reach Storage.
type Storage struct {
	root      string
	urlPrefix string
	mu        sync.RWMutex
}

// NewStorage creates storage rooted at root. urlPrefix defaults to DefaultURLPrefix.
func NewStorage(root, urlPrefix string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image root: %w", err)
	}
	return &Storage{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root returns the filesystem root.
func (s *Storage) Root() string { return s.root }

func (s *Storage) slideDir(slug, sid string) string {
	return filepath.Join(s.root, slug, imagesDir, sid)
}

// ImagePath returns the filesystem path of a slide image.
func (s *Storage) ImagePath(slug, sid, hash string) string {
	return filepath.Join(s.slideDir(slug, sid), hash+imageExtension)
}

// ThumbnailPath returns the filesystem path of a slide image thumbnail.
func (s *Storage) ThumbnailPath(slug, sid, hash string) string {
	return filepath.Join(s.slideDir(slug, sid), hash+thumbSuffix+imageExtension)
}

func (s *Storage) stylePath(slug string) string {
	return filepath.Join(s.root, slug, styleDir, styleFile)
}

func (s *Storage) candidateDir(slug string) string {
	return filepath.Join(s.root, slug, styleDir, candidatesDir)
}

func (s *Storage) candidatePath(slug, id string) string {
	return filepath.Join(s.candidateDir(slug), id+imageExtension)
}

// ImageURL returns the public URL of a slide image.
func (s *Storage) ImageURL(slug, sid, hash string) string {
	return path.Join(s.urlPrefix, slug, imagesDir, sid, hash+imageExtension)
}

// ThumbnailURL returns the public URL of a slide image thumbnail.
func (s *Storage) ThumbnailURL(slug, sid, hash string) string {
	return path.Join(s.urlPrefix, slug, imagesDir, sid, hash+thumbSuffix+imageExtension)
}

// StyleURL returns the public URL of the project's style image.
func (s *Storage) StyleURL(slug string) string {
	return path.Join(s.urlPrefix, slug, styleDir, styleFile)
}

// CandidateURL returns the public URL of a style candidate.
func (s *Storage) CandidateURL(slug, id string) string {
	return path.Join(s.urlPrefix, slug, styleDir, candidatesDir, id+imageExtension)
}

// SaveImage writes a slide image and returns its URL.
func (s *Storage) SaveImage(slug, sid, hash string, data []byte) (string, error) {
	if err := s.write(s.ImagePath(slug, sid, hash), data); err != nil {
		return "", fmt.Errorf("save image %s/%s/%s: %w", slug, sid, hash, err)
	}
	return s.ImageURL(slug, sid, hash), nil
}

// SaveThumbnail writes a slide image thumbnail and returns its URL.
func (s *Storage) SaveThumbnail(slug, sid, hash string, data []byte) (string, error) {
	if err := s.write(s.ThumbnailPath(slug, sid, hash), data); err != nil {
		return "", fmt.Errorf("save thumbnail %s/%s/%s: %w", slug, sid, hash, err)
	}
	return s.ThumbnailURL(slug, sid, hash), nil
}

// GetImage reads a slide image.
func (s *Storage) GetImage(slug, sid, hash string) ([]byte, error) {
	return s.read(s.ImagePath(slug, sid, hash))
}

// ImageExists reports whether the slide image is on disk.
func (s *Storage) ImageExists(slug, sid, hash string) bool {
	return s.exists(s.ImagePath(slug, sid, hash))
}

// ThumbnailExists reports whether the slide image thumbnail is on disk.
func (s *Storage) ThumbnailExists(slug, sid, hash string) bool {
	return s.exists(s.ThumbnailPath(slug, sid, hash))
}

// DeleteImage removes a slide image and its thumbnail. A missing thumbnail is not an error.
// Returns false if the image itself did not exist.
func (s *Storage) DeleteImage(slug, sid, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed := true
	if err := os.Remove(s.ImagePath(slug, sid, hash)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("delete image: %w", err)
		}
		existed = false
	}
	if err := os.Remove(s.ThumbnailPath(slug, sid, hash)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return existed, fmt.Errorf("delete thumbnail: %w", err)
	}
	return existed, nil
}

// ListImageHashes returns the fingerprints with an image on disk for a slide, sorted.
func (s *Storage) ListImageHashes(slug, sid string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.slideDir(slug, sid))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, imageExtension) {
			continue
		}
		name = strings.TrimSuffix(name, imageExtension)
		if strings.HasSuffix(name, thumbSuffix) {
			continue
		}
		hashes = append(hashes, name)
	}
	sort.Strings(hashes)
	return hashes, nil
}

// DeleteSlideImages removes every image stored for a slide.
func (s *Storage) DeleteSlideImages(slug, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.slideDir(slug, sid)); err != nil {
		return fmt.Errorf("delete slide images: %w", err)
	}
	return nil
}

// DeleteProject removes every image and style file of a project.
// The project document, if it shares the root, is left alone.
func (s *Storage) DeleteProject(slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dir := range []string{imagesDir, styleDir} {
		if err := os.RemoveAll(filepath.Join(s.root, slug, dir)); err != nil {
			return fmt.Errorf("delete project %s: %w", dir, err)
		}
	}
	return nil
}

// SaveStyleImage writes the project's style image and returns its URL.
func (s *Storage) SaveStyleImage(slug string, data []byte) (string, error) {
	if err := s.write(s.stylePath(slug), data); err != nil {
		return "", fmt.Errorf("save style image %s: %w", slug, err)
	}
	return s.StyleURL(slug), nil
}

// GetStyleImage reads the project's style image.
func (s *Storage) GetStyleImage(slug string) ([]byte, error) {
	return s.read(s.stylePath(slug))
}

// SaveCandidate writes a style candidate and returns it.
func (s *Storage) SaveCandidate(slug, id string, data []byte) (domain.StyleCandidate, error) {
	if err := s.write(s.candidatePath(slug, id), data); err != nil {
		return domain.StyleCandidate{}, fmt.Errorf("save candidate %s/%s: %w", slug, id, err)
	}
	return domain.StyleCandidate{ID: id, Path: s.CandidateURL(slug, id)}, nil
}

// GetCandidate reads a style candidate.
func (s *Storage) GetCandidate(slug, id string) ([]byte, error) {
	return s.read(s.candidatePath(slug, id))
}

// ListCandidates returns the candidates on disk, sorted by id.
func (s *Storage) ListCandidates(slug string) ([]domain.StyleCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.candidateDir(slug))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.StyleCandidate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	out := make([]domain.StyleCandidate, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), imageExtension) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), imageExtension)
		out = append(out, domain.StyleCandidate{ID: id, Path: s.CandidateURL(slug, id)})
	}
	return out, nil
}

// PromoteCandidate copies a candidate over the style image and returns the style URL.
// Returns ErrNotFound if the candidate does not exist.
func (s *Storage) PromoteCandidate(slug, id string) (string, error) {
	data, err := s.GetCandidate(slug, id)
	if err != nil {
		return "", err
	}
	return s.SaveStyleImage(slug, data)
}

// ClearCandidates removes all style candidates. Missing files are ignored.
func (s *Storage) ClearCandidates(slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.candidateDir(slug)); err != nil {
		return fmt.Errorf("clear candidates: %w", err)
	}
	return nil
}

func (s *Storage) write(p string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *Storage) read(p string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(p))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

func (s *Storage) exists(p string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(p)
	return err == nil
}
