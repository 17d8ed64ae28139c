package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// generateMany runs fn count times concurrently and keeps the successes in
// request order. Individual failures are logged and dropped; when every call
// fails the errors are joined under ErrGenerationFailed, or ErrUpstream if all
// of them were upstream failures.
func generateMany(ctx context.Context, logger *slog.Logger, engine string, count int, fn func(context.Context) ([]byte, error)) ([][]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrGenerationFailed)
	}

	results := make([][]byte, count)
	errs := make([]error, count)

	// Workers never return an error so one failure does not cancel its siblings.
	var g errgroup.Group
	for i := range count {
		g.Go(func() error {
			data, err := fn(ctx)
			if err != nil {
				logger.Error("failed to generate style image",
					"engine", engine,
					"index", i,
					"error", err,
				)
				errs[i] = err
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()

	images := make([][]byte, 0, count)
	allUpstream := true
	for i, data := range results {
		if errs[i] != nil {
			if !errors.Is(errs[i], ErrUpstream) {
				allUpstream = false
			}
			continue
		}
		images = append(images, data)
	}

	if len(images) == 0 {
		joined := errors.Join(errs...)
		if allUpstream {
			return nil, fmt.Errorf("failed to generate any style images: %w", joined)
		}
		// Mixed causes are reported as a generation failure only.
		return nil, fmt.Errorf("%w: failed to generate any style images: %v", ErrGenerationFailed, joined)
	}
	return images, nil
}
