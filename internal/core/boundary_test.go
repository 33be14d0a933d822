package core

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryRun(t *testing.T) {
	var recovered []error
	b := NewBoundary(NewDiscardLogger(), func(err error) {
		recovered = append(recovered, err)
	}, ErrCodeDatabase)

	t.Run("passes uncaught errors through", func(t *testing.T) {
		authErr := NewAuthError("", "no", nil)
		assert.Same(t, authErr, b.Run(func() error { return authErr }))
		assert.NoError(t, b.Run(func() error { return nil }))
		assert.Empty(t, recovered)
	})

	t.Run("catches declared codes", func(t *testing.T) {
		err := b.Run(func() error { return NewDatabaseError("write failed", nil) })

		var caught *RecoveredError
		require.ErrorAs(t, err, &caught)
		assert.True(t, HasCode(err, ErrCodeDatabase))
		assert.Len(t, recovered, 1)
	})

	t.Run("turns panics into internal errors", func(t *testing.T) {
		err := b.Run(func() error { panic("nil map") })

		var caught *RecoveredError
		require.ErrorAs(t, err, &caught)
		assert.True(t, HasCode(err, ErrCodeInternal))
		assert.Len(t, recovered, 2)
	})
}

func TestBoundaryMiddleware(t *testing.T) {
	b := NewBoundary(NewDiscardLogger(), nil)

	handler := b.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		panic(errors.New("handler bug"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"retry":true,"error":{"code":"INTERNAL_ERROR","message":"Something went wrong. Please try again."}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
