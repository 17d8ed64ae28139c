package service

import (
	"errors"

	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/store"
)

// storeError converts store sentinels to domain errors. Anything unrecognized is
// returned unchanged and surfaces as INTERNAL_ERROR at the API boundary.
func storeError(err error, slug string) error {
	var de *domainerrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, store.ErrProjectNotFound):
		return domainerrors.ProjectNotFound(slug).WithCause(err)
	case errors.Is(err, store.ErrInvalidSlug):
		return domainerrors.InvalidRequestf("Invalid slug: %q", slug).WithCause(err)
	case errors.Is(err, store.ErrVersionConflict):
		return domainerrors.ErrVersionConflict.WithCause(err)
	default:
		return err
	}
}

// generationError maps a provider failure once: upstream faults become
// UPSTREAM_API_ERROR and everything else GENERATION_FAILED.
func generationError(err error) error {
	var de *domainerrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, generation.ErrUpstream):
		return domainerrors.UpstreamAPI(err)
	default:
		return domainerrors.GenerationFailed(err)
	}
}

// isBlobMissing reports whether err means a blob file is absent.
func isBlobMissing(err error) bool {
	return errors.Is(err, images.ErrNotFound)
}
