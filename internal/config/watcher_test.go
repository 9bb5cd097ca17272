package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: [reka-flash]\n"), 0o644))

	w, err := NewCatalogWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	var (
		mu     sync.Mutex
		latest CatalogConfig
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Watch(ctx, func(c CatalogConfig) {
		mu.Lock()
		latest = c
		mu.Unlock()
	}, func(error) {}))

	require.NoError(t, os.WriteFile(path, []byte("models: [llama3-8b, mistral-large]\ndefault_model: mistral-large\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest.DefaultModel == "mistral-large"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCatalogWatcherReportsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: [reka-flash]\n"), 0o644))

	w, err := NewCatalogWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	errs := make(chan error, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Watch(ctx, func(CatalogConfig) {}, func(err error) { errs <- err }))

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("models: [x\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("models: [reka-flash\n"), 0o644))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "parse catalog file")
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported for broken catalog")
	}
}
