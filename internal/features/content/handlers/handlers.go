package handlers

import (
	"context"
	"net/http"

	"curator/internal/core"
	"curator/internal/features/common"
	"curator/internal/models"
	"curator/internal/state"
)

// App is the slice of the application state the content handlers drive
type App interface {
	common.Snapshotter
	RefreshFeed(ctx context.Context) error
	LoadMore(ctx context.Context) error
	ReorderFeed(ctx context.Context, ids []string) error
	RefreshTrending(ctx context.Context) error
	Search(ctx context.Context, query string) error
	ClearSearch(ctx context.Context) error
}

// Handlers serves the feed, trending and search views
type Handlers struct {
	logger *core.Logger
	app    App
}

// NewHandlers creates a new handlers instance
func NewHandlers(logger *core.Logger, app App) *Handlers {
	return &Handlers{
		logger: logger,
		app:    app,
	}
}

func feedView(snap state.Snapshot) any {
	return snap.Feed
}

type trendingView struct {
	Trending  []models.ContentItem `json:"trending"`
	IsLoading bool                 `json:"isLoading"`
	Error     *string              `json:"error"`
}

func trending(snap state.Snapshot) any {
	return trendingView{
		Trending:  snap.Feed.TrendingContent,
		IsLoading: snap.Feed.IsLoading,
		Error:     snap.Feed.Error,
	}
}

type searchView struct {
	Query   string               `json:"query"`
	Results []models.ContentItem `json:"results"`
	History []string             `json:"history"`
	Error   *string              `json:"error"`
}

func search(snap state.Snapshot) any {
	return searchView{
		Query:   snap.Feed.CurrentSearchQuery,
		Results: snap.Feed.SearchResults,
		History: snap.Session.SearchHistory,
		Error:   snap.Feed.Error,
	}
}

// GetFeed returns the personalized feed, loading it on first use
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.Snapshot(r.Context())
	if err != nil {
		common.Fail(w, h.logger, err)
		return
	}
	if snap.Feed.LastUpdated != nil {
		core.WriteJSON(w, http.StatusOK, snap.Feed)
		return
	}

	err = h.app.RefreshFeed(r.Context())
	common.Respond(w, r, h.app, h.logger, err, feedView)
}

// RefreshFeed reloads the personalized feed for the active preferences
func (h *Handlers) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	err := h.app.RefreshFeed(r.Context())
	common.Respond(w, r, h.app, h.logger, err, feedView)
}

// LoadMore appends the next page to the personalized feed
func (h *Handlers) LoadMore(w http.ResponseWriter, r *http.Request) {
	err := h.app.LoadMore(r.Context())
	common.Respond(w, r, h.app, h.logger, err, feedView)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ReorderFeed applies a user-chosen order to the feed
func (h *Handlers) ReorderFeed(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		common.Fail(w, h.logger, err)
		return
	}
	if req.IDs == nil {
		common.Fail(w, h.logger, core.NewValidationError("ids is required", map[string]string{"ids": "required"}))
		return
	}

	err := h.app.ReorderFeed(r.Context(), req.IDs)
	common.Respond(w, r, h.app, h.logger, err, feedView)
}

// GetTrending reloads and returns the trending view
func (h *Handlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	err := h.app.RefreshTrending(r.Context())
	common.Respond(w, r, h.app, h.logger, err, trending)
}

// Search runs the query in q and records it in the search history
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	err := h.app.Search(r.Context(), r.URL.Query().Get("q"))
	common.Respond(w, r, h.app, h.logger, err, search)
}

// ClearSearch empties the search results
func (h *Handlers) ClearSearch(w http.ResponseWriter, r *http.Request) {
	err := h.app.ClearSearch(r.Context())
	common.Respond(w, r, h.app, h.logger, err, search)
}
