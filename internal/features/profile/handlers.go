package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"curator/internal/auth"
	"curator/internal/core"
	"curator/internal/features/common"
	"curator/internal/models"
	"curator/internal/state"
)

// App is the slice of the application state the profile handlers drive
type App interface {
	common.Snapshotter
	SignIn(ctx context.Context, in auth.SignInInput) (models.UserProfile, error)
	Register(ctx context.Context, in auth.RegisterInput) (models.UserProfile, error)
	SignOut(ctx context.Context) error
	AddToFavorites(ctx context.Context, id string) error
	RemoveFromFavorites(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Favorites(ctx context.Context) ([]models.ContentItem, error)
	ClearSearchHistory(ctx context.Context) error
	UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) error
	ToggleDarkMode(ctx context.Context) error
}

// Handlers serves sign-in, favorites, search history and preferences
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

func sessionView(snap state.Snapshot) any {
	return snap.Session
}

type historyView struct {
	History []string `json:"history"`
}

func history(snap state.Snapshot) any {
	return historyView{History: snap.Session.SearchHistory}
}

type favoritesView struct {
	IDs   []string             `json:"ids"`
	Items []models.ContentItem `json:"items"`
}

// Login signs in with email and password
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.SignInInput
	if err := core.DecodeJSON(w, r, &in); err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	_, err := h.app.SignIn(r.Context(), in)
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}

// Register creates an account and signs it in
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := core.DecodeJSON(w, r, &in); err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	_, err := h.app.Register(r.Context(), in)
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}

// Logout ends the session. Personalization stays in the profile store.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.app.SignOut(r.Context())
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}

// GetSession returns the current session
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	common.Respond(w, r, h.app, h.logger, nil, sessionView)
}

// ListFavorites returns the favorite ids and the items they resolve to
func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Favorites(r.Context())
	if err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	snap, err := h.app.Snapshot(r.Context())
	if err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, favoritesView{
		IDs:   snap.Session.Favorites,
		Items: items,
	})
}

func itemID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return "", core.NewValidationError("Item id is required", map[string]string{"id": "required"})
	}
	return id, nil
}

// AddFavorite marks an item as a favorite
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	err = h.app.AddToFavorites(r.Context(), id)
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}

// RemoveFavorite unmarks an item
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	err = h.app.RemoveFromFavorites(r.Context(), id)
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}

// ToggleFavorite flips an item's favorite mark
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	_, err = h.app.ToggleFavorite(r.Context(), id)
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}

// GetSearchHistory returns the recent queries, newest first
func (h *Handlers) GetSearchHistory(w http.ResponseWriter, r *http.Request) {
	common.Respond(w, r, h.app, h.logger, nil, history)
}

// ClearSearchHistory forgets every recent query
func (h *Handlers) ClearSearchHistory(w http.ResponseWriter, r *http.Request) {
	err := h.app.ClearSearchHistory(r.Context())
	common.Respond(w, r, h.app, h.logger, err, history)
}

// UpdatePreferences merges the fields present in the body into the preferences
func (h *Handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch models.PreferencesPatch
	if err := core.DecodeJSON(w, r, &patch); err != nil {
		common.Fail(w, h.logger, err)
		return
	}

	err := h.app.UpdatePreferences(r.Context(), patch)
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}

// ToggleDarkMode flips the dark mode preference
func (h *Handlers) ToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	err := h.app.ToggleDarkMode(r.Context())
	common.Respond(w, r, h.app, h.logger, err, sessionView)
}
