package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// CatalogWatcher reloads the catalog file whenever it is written or replaced.
type CatalogWatcher struct {
	watcher *fsnotify.Watcher
	path    string
}

func NewCatalogWatcher(path string) (*CatalogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &CatalogWatcher{watcher: w, path: filepath.Clean(path)}, nil
}

// Watch calls onChange with every catalog that parses and onError with every
// one that does not. The directory is watched so editors that save by rename
// are picked up too. It returns once the watch is armed.
func (w *CatalogWatcher) Watch(ctx context.Context, onChange func(CatalogConfig), onError func(error)) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				catalog, err := LoadCatalog(w.path)
				if err != nil {
					onError(err)
					continue
				}
				onChange(*catalog)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				onError(err)
			}
		}
	}()

	return nil
}

func (w *CatalogWatcher) Stop() error {
	return w.watcher.Close()
}
