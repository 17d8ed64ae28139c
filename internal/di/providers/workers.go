package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/watcher"
)

// OutlineSyncHandle wraps the outline watcher with shutdown capability.
// OutlineSync is nil when watching is disabled.
type OutlineSyncHandle struct {
	*watcher.OutlineSync
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *OutlineSyncHandle) Shutdown() error {
	if h.OutlineSync == nil {
		return nil
	}
	h.cancel()
	return h.OutlineSync.Shutdown(context.Background())
}

// ProvideOutlineSync watches outline.yml files for edits made outside the
// server and pushes them to the search index and listeners.
func ProvideOutlineSync(i do.Injector) (*OutlineSyncHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Storage.WatchOutlines {
		log.Info("Outline watching disabled by configuration")
		return &OutlineSyncHandle{}, nil
	}

	st := do.MustInvoke[*store.Store](i)
	hub := do.MustInvoke[*HubHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)

	outlines, err := watcher.NewOutlineSync(st, hub.Hub, index.SearchIndex, outlineSettleDelay, log.Component("watcher"))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go outlines.Run(ctx)

	log.Info("Outline watcher started", "path", st.Root())
	return &OutlineSyncHandle{OutlineSync: outlines, cancel: cancel}, nil
}
