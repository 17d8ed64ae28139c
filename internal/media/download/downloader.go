// Package download fetches images that providers return by URL instead of inline.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	// Registers the decoders used to sniff downloaded payloads.
	_ "github.com/lehuagavin/genslides/internal/media/images"
)

const (
	// maxImageSize limits download size to prevent memory exhaustion.
	maxImageSize = 20 * 1024 * 1024

	// DefaultTimeout is the per-URL download budget.
	DefaultTimeout = 60 * time.Second
)

// ErrNotImage is returned when a URL serves something that does not decode as an image.
var ErrNotImage = errors.New("downloaded content is not an image")

// Result is a downloaded image.
type Result struct {
	Data   []byte
	Format string
	Width  int
	Height int
	URL    string
}

// Downloader fetches remote images.
type Downloader struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewDownloader creates a downloader. A nil client gets a default one.
func NewDownloader(client *http.Client, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{httpClient: client, timeout: DefaultTimeout, logger: logger}
}

// Fetch downloads url and verifies the body decodes as an image.
func (d *Downloader) Fetch(ctx context.Context, url string) (*Result, error) {
	if url == "" {
		return nil, errors.New("empty image URL")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	return &Result{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height, URL: url}, nil
}

// FetchFirst tries urls in order, at most limit of them, and returns the first image.
// The error of the last attempt is returned when all fail.
func (d *Downloader) FetchFirst(ctx context.Context, urls []string, limit int) (*Result, error) {
	if limit <= 0 || limit > len(urls) {
		limit = len(urls)
	}
	if limit == 0 {
		return nil, errors.New("no image URLs to download")
	}

	var lastErr error
	for _, u := range urls[:limit] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := d.Fetch(ctx, u)
		if err == nil {
			d.logger.Debug("downloaded image",
				"url", u,
				"format", res.Format,
				"width", res.Width,
				"height", res.Height,
			)
			return res, nil
		}
		d.logger.Warn("image download failed", "url", u, "error", err)
		lastErr = err
	}
	return nil, lastErr
}
