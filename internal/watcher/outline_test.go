package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/notify"
	"github.com/lehuagavin/genslides/internal/store"
)

type forgetRecorder struct {
	mu    sync.Mutex
	slugs []string
}

func (f *forgetRecorder) ProjectDeleted(slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugs = append(f.slugs, slug)
}

func (f *forgetRecorder) get() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.slugs...)
}

func setupOutlineSync(t *testing.T) (*store.Store, *notify.Hub, *forgetRecorder) {
	t.Helper()

	s, err := store.New(store.Options{
		BasePath:      t.TempDir(),
		DefaultEngine: "volcengine",
		Pricing:       domain.Pricing{PerStyleImage: 0.02, PerSlideImage: 0.02},
		Logger:        logger.Discard(),
	})
	require.NoError(t, err)

	hub := notify.NewHub(logger.Discard())
	forget := &forgetRecorder{}

	outlines, err := NewOutlineSync(s, hub, forget, 30*time.Millisecond, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go outlines.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = outlines.Shutdown(context.Background())
	})
	return s, hub, forget
}

func TestOutlineSync_ExternalEditPublishesUpdate(t *testing.T) {
	s, hub, _ := setupOutlineSync(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "deck")
	require.NoError(t, err)

	sub, err := hub.Subscribe("deck")
	require.NoError(t, err)

	// Give the watcher a moment to settle our own write, which must not be reported.
	select {
	case ev := <-sub.Events:
		t.Fatalf("own write reported as %s", ev.Type)
	case <-time.After(300 * time.Millisecond):
	}

	edited := []byte("title: Edited by hand\ncreated_at: 2026-01-01T00:00:00Z\nupdated_at: 2026-01-02T00:00:00Z\nversion: 7\nslides: []\n")
	require.NoError(t, os.WriteFile(filepath.Join(s.ProjectDir(p.Slug), store.OutlineFile), edited, 0o644))

	select {
	case ev := <-sub.Events:
		assert.Equal(t, notify.EventProjectUpdated, ev.Type)
		assert.Equal(t, notify.ProjectUpdatedData{Slug: "deck", Version: 7}, ev.Data)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for project_updated")
	}

	loaded, err := s.Load(ctx, "deck")
	require.NoError(t, err)
	assert.Equal(t, "Edited by hand", loaded.Title)
}

func TestOutlineSync_CorruptEditIsIgnored(t *testing.T) {
	s, hub, _ := setupOutlineSync(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "deck")
	require.NoError(t, err)
	sub, err := hub.Subscribe("deck")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.ProjectDir("deck"), store.OutlineFile), []byte("{{{"), 0o644))

	select {
	case ev := <-sub.Events:
		t.Fatalf("unexpected %s", ev.Type)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestOutlineSync_RemovalForgetsProject(t *testing.T) {
	s, _, forget := setupOutlineSync(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "deck")
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(s.ProjectDir("deck"), store.OutlineFile)))

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"deck"}, forget.get())
	}, 3*time.Second, 20*time.Millisecond)
}
