package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/notify"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/validation"
)

// ProjectSource is the part of the project store the outline sync needs.
type ProjectSource interface {
	Root() string
	IsOwnWrite(slug string, data []byte) bool
	Reload(ctx context.Context, slug string) (*domain.Project, error)
}

// Publisher delivers notifications to attached listeners.
type Publisher interface {
	Publish(ctx context.Context, event notify.Event)
}

// Forgetter drops derived state for a project whose document disappeared.
type Forgetter interface {
	ProjectDeleted(slug string)
}

// OutlineSync picks up outline.yml files edited outside the server, reloads
// them through the store and tells listeners the project changed.
type OutlineSync struct {
	watcher *Watcher
	source  ProjectSource
	pub     Publisher
	forget  Forgetter
	logger  *slog.Logger
}

// NewOutlineSync creates a watcher over the store root. forget may be nil.
func NewOutlineSync(source ProjectSource, pub Publisher, forget Forgetter, settle time.Duration, logger *slog.Logger) (*OutlineSync, error) {
	w, err := New(logger, Options{
		FileName:    store.OutlineFile,
		MaxDepth:    1,
		SettleDelay: settle,
	})
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(source.Root(), 0o755); err != nil {
		_ = w.Stop()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := w.Watch(source.Root()); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return &OutlineSync{
		watcher: w,
		source:  source,
		pub:     pub,
		forget:  forget,
		logger:  logger,
	}, nil
}

// Run handles events until ctx is cancelled.
func (s *OutlineSync) Run(ctx context.Context) {
	go func() { _ = s.watcher.Start(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.watcher.Events():
			s.handle(ctx, ev)
		case err := <-s.watcher.Errors():
			s.logger.Warn("outline watcher error", "error", err)
		}
	}
}

// Shutdown stops the underlying watcher.
func (s *OutlineSync) Shutdown(_ context.Context) error {
	return s.watcher.Stop()
}

func (s *OutlineSync) handle(ctx context.Context, ev Event) {
	slug := filepath.Base(filepath.Dir(ev.Path))
	if !validation.IsIdentifier(slug) {
		return
	}
	logger := s.logger.With("slug", slug, "event", ev.Type.String())

	if ev.Type == EventRemoved {
		if s.forget != nil {
			s.forget.ProjectDeleted(slug)
		}
		logger.Info("outline removed externally")
		return
	}

	data, err := os.ReadFile(ev.Path)
	if err != nil {
		logger.Warn("failed to read changed outline", "error", err)
		return
	}
	if s.source.IsOwnWrite(slug, data) {
		return
	}

	p, err := s.source.Reload(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			logger.Warn("external outline edit is not valid yaml", "error", err)
			return
		}
		logger.Error("failed to reload project", "error", err)
		return
	}

	logger.Info("reloaded externally edited project", "version", p.Version, "slides", len(p.Slides))
	s.pub.Publish(ctx, notify.ProjectUpdated(slug, p.Version))
}
