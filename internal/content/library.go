package content

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Library groups the item store and the update feed so they load together.
type Library struct {
	Store   *Store
	Updates *UpdateFeed
	logger  *zap.Logger
}

// NewLibrary wires a Library. updates may be nil when the site has no feed.
func NewLibrary(store *Store, updates *UpdateFeed, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{Store: store, Updates: updates, logger: logger}
}

// Load loads items and updates in parallel. Each side falls back on its own,
// so the only error returned is context cancellation.
func (l *Library) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if l.Store != nil {
		g.Go(func() error { return l.Store.Load(gctx) })
	}
	if l.Updates != nil {
		g.Go(func() error { return l.Updates.Load(gctx) })
	}
	return g.Wait()
}

// StartRefresh reloads the library every interval until the returned stop
// function is called or ctx ends. stop blocks until the loop has exited.
// A non-positive interval disables refreshing.
func (l *Library) StartRefresh(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Load(ctx); err != nil && ctx.Err() == nil {
					l.logger.Warn("content: refresh failed", zap.Error(err))
				}
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
