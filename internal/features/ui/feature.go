// Package ui serves the panel, section and notification state.
package ui

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"curator/internal/core"
	"curator/internal/features/common"
	"curator/internal/state"
)

// App is the slice of the application state the UI handlers drive
type App interface {
	common.Snapshotter
	SetActiveSection(ctx context.Context, section state.Section) error
	TogglePanel(ctx context.Context, panel string) error
	SetDraggedItem(ctx context.Context, id string) error
	Notify(ctx context.Context, kind state.NotificationType, message string) (state.Notification, error)
	DismissNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error
}

// Feature exposes the UI coordination state
type Feature struct {
	*core.BaseFeature
	app App
}

// NewFeature creates the ui feature
func NewFeature(logger *core.Logger, app App) *Feature {
	return &Feature{
		BaseFeature: core.NewBaseFeature("ui", "Panels, sections, drag state and notifications", true, logger),
		app:         app,
	}
}

func uiView(snap state.Snapshot) any {
	return snap.UI
}

// Routes returns the HTTP routes for the ui feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodGet, Path: "/api/ui", Handler: f.getUI},
		{Method: http.MethodPut, Path: "/api/ui/section", Handler: f.setSection},
		{Method: http.MethodPost, Path: "/api/ui/toggle/{panel}", Handler: f.togglePanel},
		{Method: http.MethodPut, Path: "/api/ui/drag", Handler: f.setDragged},
		{Method: http.MethodPost, Path: "/api/ui/notifications", Handler: f.notify},
		{Method: http.MethodDelete, Path: "/api/ui/notifications/{id}", Handler: f.dismiss},
		{Method: http.MethodDelete, Path: "/api/ui/notifications", Handler: f.clearNotifications},
	}
}

func (f *Feature) getUI(w http.ResponseWriter, r *http.Request) {
	common.Respond(w, r, f.app, f.Logger(), nil, uiView)
}

func (f *Feature) setSection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Section state.Section `json:"section"`
	}
	if err := core.DecodeJSON(w, r, &req); err != nil {
		common.Fail(w, f.Logger(), err)
		return
	}

	err := f.app.SetActiveSection(r.Context(), req.Section)
	common.Respond(w, r, f.app, f.Logger(), err, uiView)
}

func (f *Feature) togglePanel(w http.ResponseWriter, r *http.Request) {
	err := f.app.TogglePanel(r.Context(), chi.URLParam(r, "panel"))
	common.Respond(w, r, f.app, f.Logger(), err, uiView)
}

// setDragged starts a drag for itemId; an empty id ends it
func (f *Feature) setDragged(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := core.DecodeJSON(w, r, &req); err != nil {
		common.Fail(w, f.Logger(), err)
		return
	}

	err := f.app.SetDraggedItem(r.Context(), req.ItemID)
	common.Respond(w, r, f.app, f.Logger(), err, uiView)
}

func (f *Feature) notify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    state.NotificationType `json:"type"`
		Message string                 `json:"message"`
	}
	if err := core.DecodeJSON(w, r, &req); err != nil {
		common.Fail(w, f.Logger(), err)
		return
	}
	if req.Message == "" {
		common.Fail(w, f.Logger(), core.NewValidationError("Message is required", map[string]string{"message": "required"}))
		return
	}

	n, err := f.app.Notify(r.Context(), req.Type, req.Message)
	if err != nil {
		common.Fail(w, f.Logger(), err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, n)
}

func (f *Feature) dismiss(w http.ResponseWriter, r *http.Request) {
	err := f.app.DismissNotification(r.Context(), chi.URLParam(r, "id"))
	common.Respond(w, r, f.app, f.Logger(), err, uiView)
}

func (f *Feature) clearNotifications(w http.ResponseWriter, r *http.Request) {
	err := f.app.ClearNotifications(r.Context())
	common.Respond(w, r, f.app, f.Logger(), err, uiView)
}
