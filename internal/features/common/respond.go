// Package common holds the response helpers shared by the API features.
package common

import (
	"context"
	"errors"
	"net/http"

	"curator/internal/core"
	"curator/internal/state"
)

// Snapshotter is the part of the application state the handlers read back
type Snapshotter interface {
	Snapshot(ctx context.Context) (state.Snapshot, error)
}

// Respond finishes a request that ran a transition. A superseded request is
// not an error: the caller gets the state the newer request produced.
func Respond(w http.ResponseWriter, r *http.Request, app Snapshotter, logger *core.Logger, err error, view func(state.Snapshot) any) {
	if err != nil && !errors.Is(err, state.ErrSuperseded) {
		Fail(w, logger, err)
		return
	}

	snap, err := app.Snapshot(r.Context())
	if err != nil {
		Fail(w, logger, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, view(snap))
}

// Fail logs err at a level matching its kind and writes the error envelope
func Fail(w http.ResponseWriter, logger *core.Logger, err error) {
	if core.HasCode(err, core.ErrCodeValidation, core.ErrCodeAuth, core.ErrCodeNotFound) {
		logger.Debug("Request rejected", "error", err)
	} else {
		logger.Error("Request failed", "error", err)
	}
	core.HandleError(w, err)
}
