package content

import (
	"context"
	"fmt"
	"net/http"

	"curator/internal/core"
	"curator/internal/features/content/handlers"
	"curator/internal/features/content/services"
)

// App is what the content feature needs from the application state
type App interface {
	handlers.App
	services.FeedRefresher
}

// Feature serves the personalized feed, trending and search views and owns
// the auto-refresh loop
type Feature struct {
	*core.BaseFeature
	handlers  *handlers.Handlers
	refresher *services.Refresher
}

// NewFeature creates the content feature
func NewFeature(logger *core.Logger, config *core.Config, app App) *Feature {
	base := core.NewBaseFeature("content", "Personalized feed, trending and search", true, logger)

	return &Feature{
		BaseFeature: base,
		handlers:    handlers.NewHandlers(base.Logger(), app),
		refresher:   services.NewRefresher(app, config.Features.AutoRefreshInterval, base.Logger()),
	}
}

// Init starts the auto-refresh loop
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed refresher: %w", err)
	}
	return nil
}

// Routes returns the HTTP routes for the content feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		// Personalized feed
		{Method: http.MethodGet, Path: "/api/feed", Handler: f.handlers.GetFeed},
		{Method: http.MethodPost, Path: "/api/feed/refresh", Handler: f.handlers.RefreshFeed},
		{Method: http.MethodPost, Path: "/api/feed/more", Handler: f.handlers.LoadMore},
		{Method: http.MethodPut, Path: "/api/feed/order", Handler: f.handlers.ReorderFeed},

		// Trending and search
		{Method: http.MethodGet, Path: "/api/trending", Handler: f.handlers.GetTrending},
		{Method: http.MethodGet, Path: "/api/search", Handler: f.handlers.Search},
		{Method: http.MethodDelete, Path: "/api/search", Handler: f.handlers.ClearSearch},
	}
}

// Shutdown stops the auto-refresh loop
func (f *Feature) Shutdown(ctx context.Context) error {
	if err := f.refresher.Stop(ctx); err != nil {
		f.Logger().Error("Failed to stop feed refresher", "error", err)
	}
	return f.BaseFeature.Shutdown(ctx)
}
