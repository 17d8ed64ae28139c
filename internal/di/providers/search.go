package providers

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/search"
	"github.com/lehuagavin/genslides/internal/service"
	"github.com/lehuagavin/genslides/internal/store"
)

// searchDir holds the index under the slides root. The leading dot keeps it
// out of project listings.
const searchDir = ".search"

// SearchIndexHandle owns the slide index and any background rebuild started at boot.
type SearchIndexHandle struct {
	*search.SearchIndex

	ctx     context.Context
	cancel  context.CancelFunc
	rebuild sync.WaitGroup
}

// Shutdown stops a running boot rebuild, waits for it, then closes the index.
func (h *SearchIndexHandle) Shutdown() error {
	h.cancel()
	h.rebuild.Wait()
	return h.Close()
}

// ProvideSearchIndex opens the on-disk index under the slides root.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dir := filepath.Join(cfg.Storage.SlidesBasePath, searchDir)
	index, err := search.NewSearchIndex(search.Options{
		DataPath: dir,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docs, _ := index.DocumentCount()
	log.Info("Slide search index opened", "path", dir, "documents", docs)

	ctx, cancel := context.WithCancel(context.Background())
	return &SearchIndexHandle{SearchIndex: index, ctx: ctx, cancel: cancel}, nil
}

// ProvideSearchService builds the search service and makes the index the store's
// observer, so every project save or delete is reflected in search results.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	h := do.MustInvoke[*SearchIndexHandle](i)
	st := do.MustInvoke[*store.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	st.SetObserver(h.SearchIndex)
	return service.NewSearchService(h.SearchIndex, st, log.Component("search")), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it is
// empty but decks exist on disk, e.g. after the .search directory was removed
// or decks were copied in while the server was down.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	h := do.MustInvoke[*SearchIndexHandle](i)
	svc := do.MustInvoke[*service.SearchService](i)
	st := do.MustInvoke[*store.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	if docs, _ := svc.DocumentCount(); docs > 0 {
		return
	}

	projects, err := st.List(h.ctx)
	if err != nil || len(projects) == 0 {
		return
	}
	slides := 0
	for _, p := range projects {
		slides += len(p.Slides)
	}
	log.Info("Slide search index is empty, rebuilding from decks",
		"projects", len(projects),
		"slides", slides,
	)

	h.rebuild.Add(1)
	go func() {
		defer h.rebuild.Done()
		if err := svc.ReindexAll(h.ctx); err != nil && h.ctx.Err() == nil {
			log.Error("Slide search rebuild failed", "error", err)
		}
	}()
}
