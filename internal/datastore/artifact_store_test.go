package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArtifactStore(t *testing.T) *ArtifactStore {
	t.Helper()
	cfg := config.NewDefaultArtifactConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "schedule")
	store, err := NewArtifactStore(&cfg, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestArtifactStore_CreatesOutputDir(t *testing.T) {
	store := newTestArtifactStore(t)
	info, err := os.Stat(store.OutputDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestArtifactStore_Save(t *testing.T) {
	store := newTestArtifactStore(t)
	retrievedAt := time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC)

	path, err := store.Save("spo", ".pdf", []byte("%PDF-1.4 fake"), retrievedAt)
	require.NoError(t, err)

	assert.Equal(t, "spo_20250901_083000.pdf", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestArtifactStore_Save_DefaultExtension(t *testing.T) {
	store := newTestArtifactStore(t)

	path, err := store.Save("spo", "", []byte("x"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(path))
}

func TestArtifactStore_Save_NoCollisionOverwrite(t *testing.T) {
	store := newTestArtifactStore(t)
	retrievedAt := time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC)

	first, err := store.Save("spo", ".pdf", []byte("one"), retrievedAt)
	require.NoError(t, err)
	second, err := store.Save("spo", ".pdf", []byte("two"), retrievedAt)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "spo_20250901_083000_1.pdf", filepath.Base(second))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

// Concurrent saves for the same identity within the same second must each end
// up in their own file even when every writer races for the base name at once.
func TestArtifactStore_Save_ConcurrentSameSecond(t *testing.T) {
	store := newTestArtifactStore(t)
	retrievedAt := time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC)

	const writers = 32
	paths := make([]string, writers)
	errs := make([]error, writers)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			paths[i], errs[i] = store.Save("spo", ".pdf", []byte(fmt.Sprintf("payload-%d", i)), retrievedAt)
		}(i)
	}
	close(start)
	wg.Wait()

	seen := make(map[string]struct{}, writers)
	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		seen[paths[i]] = struct{}{}

		data, err := os.ReadFile(paths[i])
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("payload-%d", i), string(data))
	}
	assert.Len(t, seen, writers)

	entries, err := os.ReadDir(store.OutputDir())
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestArtifactStore_NoTempFilesLeftBehind(t *testing.T) {
	store := newTestArtifactStore(t)
	_, err := store.Save("npo", ".xls", []byte("sheet"), time.Now())
	require.NoError(t, err)

	entries, err := os.ReadDir(store.OutputDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "*")
}
