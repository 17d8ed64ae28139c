package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehuagavin/genslides/internal/logger"
)

func startWatcher(t *testing.T, root string, opts Options) *Watcher {
	t.Helper()

	w, err := New(logger.Discard(), opts)
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx) //nolint:errcheck // Test goroutine
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return w
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func TestWatcher_RejectsFile(t *testing.T) {
	w, err := New(logger.Discard(), Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, w.Watch(file))
	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
}

func TestWatcher_AddedThenModified(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{FileName: "outline.yml", MaxDepth: 1, SettleDelay: 30 * time.Millisecond})

	project := filepath.Join(root, "deck")
	require.NoError(t, os.Mkdir(project, 0o755))
	outline := filepath.Join(project, "outline.yml")
	require.NoError(t, os.WriteFile(outline, []byte("title: one\n"), 0o644))

	ev := nextEvent(t, w)
	assert.Equal(t, EventAdded, ev.Type)
	assert.Equal(t, outline, ev.Path)
	assert.NotZero(t, ev.Size)

	require.NoError(t, os.WriteFile(outline, []byte("title: two, longer\n"), 0o644))
	ev = nextEvent(t, w)
	assert.Equal(t, EventModified, ev.Type)

	require.NoError(t, os.Remove(outline))
	ev = nextEvent(t, w)
	assert.Equal(t, EventRemoved, ev.Type)
}

func TestWatcher_ExistingFileIsKnown(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "deck")
	require.NoError(t, os.Mkdir(project, 0o755))
	outline := filepath.Join(project, "outline.yml")
	require.NoError(t, os.WriteFile(outline, []byte("title: one\n"), 0o644))

	w := startWatcher(t, root, Options{FileName: "outline.yml", MaxDepth: 1, SettleDelay: 30 * time.Millisecond})

	require.NoError(t, os.WriteFile(outline, []byte("title: edited\n"), 0o644))
	ev := nextEvent(t, w)
	assert.Equal(t, EventModified, ev.Type)
}

func TestWatcher_IgnoresOtherFilesAndDepth(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "deck")
	images := filepath.Join(project, "images")
	require.NoError(t, os.MkdirAll(images, 0o755))

	w := startWatcher(t, root, Options{FileName: "outline.yml", MaxDepth: 1, SettleDelay: 30 * time.Millisecond})

	require.NoError(t, os.WriteFile(filepath.Join(project, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(images, "outline.yml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".outline.yml.1.tmp"), []byte("x"), 0o644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %s for %s", ev.Type, ev.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(logger.Discard(), Options{})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
