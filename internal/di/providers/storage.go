package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/media/images"
	"github.com/lehuagavin/genslides/internal/store"
)

// ProvideStore provides the project document store.
func ProvideStore(i do.Injector) (*store.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := store.New(store.Options{
		BasePath:      cfg.Storage.SlidesBasePath,
		DefaultEngine: cfg.Engines.Default,
		Pricing:       pricing(cfg),
		Logger:        log.Component("store"),
	})
	if err != nil {
		return nil, fmt.Errorf("project store: %w", err)
	}

	log.Info("Project store initialized", "path", st.Root())
	return st, nil
}

// ProvideImageStorage provides the image blob storage. Blobs live beside the
// project documents and are served under images.DefaultURLPrefix.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)

	storage, err := images.NewStorage(cfg.Storage.SlidesBasePath, images.DefaultURLPrefix)
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}
	return storage, nil
}

func pricing(cfg *config.Config) domain.Pricing {
	return domain.Pricing{
		PerStyleImage: cfg.Cost.PerStyleImage,
		PerSlideImage: cfg.Cost.PerSlideImage,
	}
}
