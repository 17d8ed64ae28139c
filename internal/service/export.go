package service

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lehuagavin/genslides/internal/hash"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/validation"
)

// ExportService packages slide images for download.
type ExportService struct {
	store  *store.Store
	blobs  *images.Storage
	logger *slog.Logger
}

// NewExportService creates a new export service.
func NewExportService(st *store.Store, blobs *images.Storage, logger *slog.Logger) *ExportService {
	return &ExportService{store: st, blobs: blobs, logger: logger}
}

// ExportEntry is one file of an export archive.
type ExportEntry struct {
	Name string
	Path string
}

// Export is a prepared archive of a project's slide images.
type Export struct {
	Slug     string
	Filename string
	Entries  []ExportEntry
	logger   *slog.Logger
}

// Prepare resolves the image of every slide in order. Each slide contributes
// its current image (the one matching its content, else the latest); slides
// without an image file are skipped. Entries are numbered 01.jpg, 02.jpg, ...
// in slide order, so numbering has no gaps.
func (s *ExportService) Prepare(ctx context.Context, slug string) (*Export, error) {
	if err := validation.Identifier("slug", slug); err != nil {
		return nil, err
	}
	p, err := s.store.Load(ctx, slug)
	if err != nil {
		return nil, storeError(err, slug)
	}

	exp := &Export{
		Slug:     slug,
		Filename: slug + ".zip",
		logger:   s.logger.With("slug", slug),
	}
	for _, slide := range p.Slides {
		img := slide.CurrentImage(hash.Text(slide.Content))
		if img == nil {
			continue
		}
		path := s.blobs.ImagePath(slug, slide.SID, img.Hash)
		if _, err := os.Stat(path); err != nil {
			s.logger.Debug("skipping slide without image file", "slug", slug, "sid", slide.SID, "hash", img.Hash)
			continue
		}
		exp.Entries = append(exp.Entries, ExportEntry{
			Name: fmt.Sprintf("%02d.jpg", len(exp.Entries)+1),
			Path: path,
		})
	}
	return exp, nil
}

// WriteTo streams the archive to w. Images are already compressed, so entries
// are stored rather than deflated.
func (e *Export) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, entry := range e.Entries {
		if err := copyFileToZip(zw, entry.Path, entry.Name); err != nil {
			// A file removed since Prepare is skipped; the archive stays valid.
			e.logger.Warn("failed to add image to export", "entry", entry.Name, "error", err)
			continue
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finalize zip: %w", err)
	}
	return cw.n, nil
}

func copyFileToZip(zw *zip.Writer, srcPath, archivePath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{Name: archivePath, Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
