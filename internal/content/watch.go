package content

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultWatchDebounce collapses bursts of editor writes into one reload.
const DefaultWatchDebounce = 300 * time.Millisecond

// LocalPaths returns the filesystem paths backing the library's sources.
// HTTP sources are skipped.
func (l *Library) LocalPaths() []string {
	var paths []string
	add := func(src Source) {
		if fs, ok := src.(FileSource); ok && fs.Path != "" {
			paths = append(paths, fs.Path)
		}
	}
	if l.Store != nil {
		add(l.Store.source)
	}
	if l.Updates != nil {
		add(l.Updates.source)
	}
	return paths
}

// Watch reloads the library whenever one of its local data files changes.
// Parent directories are watched so atomic renames by editors are seen.
// The returned stop function blocks until the watcher goroutine exits.
func (l *Library) Watch(ctx context.Context, debounce time.Duration) (stop func(), err error) {
	paths := l.LocalPaths()
	if len(paths) == 0 {
		return func() {}, nil
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	targets := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		targets[filepath.Clean(abs)] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				name, err := filepath.Abs(event.Name)
				if err != nil {
					name = event.Name
				}
				if _, ok := targets[filepath.Clean(name)]; !ok {
					continue
				}
				l.logger.Debug("content: data file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
				timer.Reset(debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("content: watcher error", zap.Error(err))
			case <-timer.C:
				if err := l.Load(ctx); err != nil && ctx.Err() == nil {
					l.logger.Warn("content: reload after change failed", zap.Error(err))
				}
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}, nil
}
