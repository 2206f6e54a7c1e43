package storage_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/ftpsync/pkg/storage"
	"github.com/sdejongh/ftpsync/pkg/storage/storagetest"
)

func paths(entries []storage.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	sort.Strings(out)
	return out
}

func newTree() *storagetest.Memory {
	m := storagetest.NewMemory()
	now := time.Now()
	m.AddFile("/www/index.html", []byte("i"), now)
	m.AddFile("/www/css/main.css", []byte("c"), now)
	m.AddFile("/www/css/vendor/reset.css", []byte("r"), now)
	return m
}

func TestWalkDepth(t *testing.T) {
	ctx := context.Background()
	backend := newTree()

	t.Run("DepthZero", func(t *testing.T) {
		entries, err := storage.Walk(ctx, backend, "/www", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"/www/css", "/www/index.html"}, paths(entries))
	})

	t.Run("DepthOne", func(t *testing.T) {
		entries, err := storage.Walk(ctx, backend, "/www", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"/www/css", "/www/css/main.css", "/www/css/vendor", "/www/index.html"}, paths(entries))
	})

	t.Run("Unbounded", func(t *testing.T) {
		entries, err := storage.Walk(ctx, backend, "/www", 10)
		require.NoError(t, err)
		assert.Len(t, entries, 5)
	})

	t.Run("MissingStart", func(t *testing.T) {
		_, err := storage.Walk(ctx, backend, "/nope", 3)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestWalkPropagatesListFailure(t *testing.T) {
	backend := newTree()
	backend.ListErrors["/www/css"] = assert.AnError

	_, err := storage.Walk(context.Background(), backend, "/www", 5)
	assert.Equal(t, storage.KindPermissionDenied, storage.KindOf(err))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	backend := newTree()

	t.Run("ByName", func(t *testing.T) {
		entries, err := storage.Search(ctx, backend, "/www", "*.css", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"/www/css/main.css", "/www/css/vendor/reset.css"}, paths(entries))
	})

	t.Run("ByRelativePath", func(t *testing.T) {
		entries, err := storage.Search(ctx, backend, "/www", "css/*.css", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"/www/css/main.css"}, paths(entries))
	})

	t.Run("DoubleStar", func(t *testing.T) {
		entries, err := storage.Search(ctx, backend, "/www", "**/vendor/*", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"/www/css/vendor/reset.css"}, paths(entries))
	})

	t.Run("BadPattern", func(t *testing.T) {
		_, err := storage.Search(ctx, backend, "/www", "[", 10)
		assert.Equal(t, storage.KindConfiguration, storage.KindOf(err))
	})
}
