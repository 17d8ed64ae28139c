package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir(), "")
	require.NoError(t, err)
	return storage
}

func TestNewStorage(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "slides")

		storage, err := NewStorage(root, "")
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewStorage("", "")
		assert.Error(t, err)
		assert.Nil(t, storage)
		assert.Contains(t, err.Error(), "base path cannot be empty")
	})

	t.Run("trims trailing slash from prefix", func(t *testing.T) {
		storage, err := NewStorage(t.TempDir(), "/files/")
		require.NoError(t, err)
		assert.Equal(t, "/files/demo/style/style.jpg", storage.StyleURL("demo"))
	})
}

func TestStorage_URLs(t *testing.T) {
	storage := setupTestStorage(t)

	assert.Equal(t, "/static/slides/demo/images/slide-abc/0123456789abcdef.jpg",
		storage.ImageURL("demo", "slide-abc", "0123456789abcdef"))
	assert.Equal(t, "/static/slides/demo/images/slide-abc/0123456789abcdef_thumb.jpg",
		storage.ThumbnailURL("demo", "slide-abc", "0123456789abcdef"))
	assert.Equal(t, "/static/slides/demo/style/style.jpg", storage.StyleURL("demo"))
	assert.Equal(t, "/static/slides/demo/style/candidates/candidate-1.jpg",
		storage.CandidateURL("demo", "candidate-1"))
}

func TestStorage_SlideImages(t *testing.T) {
	t.Run("save and get round trip", func(t *testing.T) {
		storage := setupTestStorage(t)
		data := []byte("jpeg bytes")

		url, err := storage.SaveImage("demo", "slide-1", "aaaa", data)
		require.NoError(t, err)
		assert.Equal(t, storage.ImageURL("demo", "slide-1", "aaaa"), url)

		got, err := storage.GetImage("demo", "slide-1", "aaaa")
		require.NoError(t, err)
		assert.Equal(t, data, got)
		assert.True(t, storage.ImageExists("demo", "slide-1", "aaaa"))
		assert.False(t, storage.ThumbnailExists("demo", "slide-1", "aaaa"))
	})

	t.Run("rejects empty data", func(t *testing.T) {
		storage := setupTestStorage(t)

		_, err := storage.SaveImage("demo", "slide-1", "aaaa", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "image data cannot be empty")
	})

	t.Run("missing image returns ErrNotFound", func(t *testing.T) {
		storage := setupTestStorage(t)

		_, err := storage.GetImage("demo", "slide-1", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list excludes thumbnails", func(t *testing.T) {
		storage := setupTestStorage(t)
		for _, h := range []string{"bbbb", "aaaa"} {
			_, err := storage.SaveImage("demo", "slide-1", h, []byte("x"))
			require.NoError(t, err)
			_, err = storage.SaveThumbnail("demo", "slide-1", h, []byte("t"))
			require.NoError(t, err)
		}

		hashes, err := storage.ListImageHashes("demo", "slide-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"aaaa", "bbbb"}, hashes)
	})

	t.Run("list of unknown slide is empty", func(t *testing.T) {
		storage := setupTestStorage(t)

		hashes, err := storage.ListImageHashes("demo", "slide-none")
		require.NoError(t, err)
		assert.Empty(t, hashes)
	})

	t.Run("delete tolerates missing thumbnail", func(t *testing.T) {
		storage := setupTestStorage(t)
		_, err := storage.SaveImage("demo", "slide-1", "aaaa", []byte("x"))
		require.NoError(t, err)

		existed, err := storage.DeleteImage("demo", "slide-1", "aaaa")
		require.NoError(t, err)
		assert.True(t, existed)
		assert.False(t, storage.ImageExists("demo", "slide-1", "aaaa"))

		existed, err = storage.DeleteImage("demo", "slide-1", "aaaa")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("delete slide images removes directory", func(t *testing.T) {
		storage := setupTestStorage(t)
		_, err := storage.SaveImage("demo", "slide-1", "aaaa", []byte("x"))
		require.NoError(t, err)

		require.NoError(t, storage.DeleteSlideImages("demo", "slide-1"))
		_, err = os.Stat(filepath.Join(storage.Root(), "demo", "images", "slide-1"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestStorage_DeleteProject(t *testing.T) {
	storage := setupTestStorage(t)
	_, err := storage.SaveImage("demo", "slide-1", "aaaa", []byte("x"))
	require.NoError(t, err)
	_, err = storage.SaveStyleImage("demo", []byte("style"))
	require.NoError(t, err)
	outline := filepath.Join(storage.Root(), "demo", "outline.yml")
	require.NoError(t, os.WriteFile(outline, []byte("title: x\n"), 0o644))

	require.NoError(t, storage.DeleteProject("demo"))

	assert.False(t, storage.ImageExists("demo", "slide-1", "aaaa"))
	_, err = storage.GetStyleImage("demo")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(outline)
	assert.NoError(t, err)
}

func TestStorage_Style(t *testing.T) {
	t.Run("candidates are listed and promoted", func(t *testing.T) {
		storage := setupTestStorage(t)

		c1, err := storage.SaveCandidate("demo", "candidate-1", []byte("one"))
		require.NoError(t, err)
		assert.Equal(t, "candidate-1", c1.ID)
		assert.Equal(t, storage.CandidateURL("demo", "candidate-1"), c1.Path)
		_, err = storage.SaveCandidate("demo", "candidate-2", []byte("two"))
		require.NoError(t, err)

		list, err := storage.ListCandidates("demo")
		require.NoError(t, err)
		require.Len(t, list, 2)

		url, err := storage.PromoteCandidate("demo", "candidate-2")
		require.NoError(t, err)
		assert.Equal(t, storage.StyleURL("demo"), url)

		data, err := storage.GetStyleImage("demo")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("promote unknown candidate", func(t *testing.T) {
		storage := setupTestStorage(t)

		_, err := storage.PromoteCandidate("demo", "candidate-x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("clear candidates keeps style image", func(t *testing.T) {
		storage := setupTestStorage(t)
		_, err := storage.SaveStyleImage("demo", []byte("style"))
		require.NoError(t, err)
		_, err = storage.SaveCandidate("demo", "candidate-1", []byte("one"))
		require.NoError(t, err)

		require.NoError(t, storage.ClearCandidates("demo"))
		require.NoError(t, storage.ClearCandidates("demo"))

		list, err := storage.ListCandidates("demo")
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = storage.GetStyleImage("demo")
		assert.NoError(t, err)
	})
}
