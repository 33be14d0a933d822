package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFeature struct {
	*BaseFeature
	shutdownErr error
}

func (f *pingFeature) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/" + f.Name(), Handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}}}
}

func (f *pingFeature) Shutdown(ctx context.Context) error {
	return f.shutdownErr
}

func TestRegistry(t *testing.T) {
	logger := NewDiscardLogger()
	registry := NewRegistry(logger)

	stopErr := errors.New("stuck")
	require.NoError(t, registry.Register(&pingFeature{BaseFeature: NewBaseFeature("beta", "b", true, logger), shutdownErr: stopErr}))
	require.NoError(t, registry.Register(&pingFeature{BaseFeature: NewBaseFeature("alpha", "a", true, logger)}))
	require.NoError(t, registry.Register(&pingFeature{BaseFeature: NewBaseFeature("off", "o", false, logger)}))
	assert.Error(t, registry.Register(&pingFeature{BaseFeature: NewBaseFeature("alpha", "again", true, logger)}))

	status := registry.Status()
	require.Len(t, status, 3)
	assert.Equal(t, "alpha", status[0].Name)
	assert.Len(t, registry.ListEnabled(), 2)

	router := chi.NewRouter()
	registry.Mount(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alpha", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/off", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, registry.InitAll(context.Background()))
	assert.ErrorIs(t, registry.ShutdownAll(context.Background()), stopErr)
}
