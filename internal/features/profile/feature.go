// Package profile serves the account, favorites and preferences endpoints.
package profile

import (
	"net/http"

	"curator/internal/core"
)

// Feature exposes sign-in and the personalization data of the signed-in user
type Feature struct {
	*core.BaseFeature
	handlers *Handlers
}

// NewFeature creates the profile feature
func NewFeature(logger *core.Logger, app App) *Feature {
	base := core.NewBaseFeature("profile", "Accounts, favorites, search history and preferences", true, logger)
	return &Feature{
		BaseFeature: base,
		handlers:    NewHandlers(base.Logger(), app),
	}
}

// Routes returns the HTTP routes for the profile feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		// Authentication
		{Method: http.MethodPost, Path: "/api/auth/register", Handler: f.handlers.Register},
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: f.handlers.Login},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: f.handlers.Logout},
		{Method: http.MethodGet, Path: "/api/session", Handler: f.handlers.GetSession},

		// Favorites
		{Method: http.MethodGet, Path: "/api/favorites", Handler: f.handlers.ListFavorites},
		{Method: http.MethodPut, Path: "/api/favorites/{id}", Handler: f.handlers.AddFavorite},
		{Method: http.MethodDelete, Path: "/api/favorites/{id}", Handler: f.handlers.RemoveFavorite},
		{Method: http.MethodPost, Path: "/api/favorites/{id}/toggle", Handler: f.handlers.ToggleFavorite},

		// Search history
		{Method: http.MethodGet, Path: "/api/search/history", Handler: f.handlers.GetSearchHistory},
		{Method: http.MethodDelete, Path: "/api/search/history", Handler: f.handlers.ClearSearchHistory},

		// Preferences
		{Method: http.MethodPatch, Path: "/api/preferences", Handler: f.handlers.UpdatePreferences},
		{Method: http.MethodPost, Path: "/api/preferences/dark-mode", Handler: f.handlers.ToggleDarkMode},
	}
}
