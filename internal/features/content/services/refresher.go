package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"curator/internal/core"
)

// FeedRefresher is the state the auto-refresher drives
type FeedRefresher interface {
	AutoRefreshEnabled(ctx context.Context) (bool, error)
	RefreshFeed(ctx context.Context) error
}

// Refresher reloads the personalized feed on an interval while the signed-in
// user has autoRefresh enabled
type Refresher struct {
	app      FeedRefresher
	interval time.Duration
	logger   *core.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRefresher creates a new refresher
func NewRefresher(app FeedRefresher, interval time.Duration, logger *core.Logger) *Refresher {
	return &Refresher{
		app:      app,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the refresh loop
func (r *Refresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return core.NewConfigurationError("auto refresh interval must be positive", nil)
	}

	r.logger.Info("Starting feed auto-refresh", "interval", r.interval)
	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Stop ends the loop and waits for an in-flight refresh to finish
func (r *Refresher) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	enabled, err := r.app.AutoRefreshEnabled(ctx)
	if err != nil {
		r.logger.Warn("Auto-refresh skipped", "error", err)
		return
	}
	if !enabled {
		return
	}

	if err := r.app.RefreshFeed(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("Auto-refresh failed", "error", err)
		return
	}
	r.logger.Debug("Feed auto-refreshed")
}
