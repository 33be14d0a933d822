package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network", NewNetworkError("Request timed out. Please try again.", nil), "Request timed out. Please try again."},
		{"server error", NewAPIError(503, "upstream", nil), "Server error. Please try again later."},
		{"not found", NewAPIError(404, "upstream", nil), "Content not found."},
		{"rate limited", NewAPIError(429, "upstream", nil), "Too many requests. Please wait a moment and try again."},
		{"other api", NewAPIError(400, "upstream", nil), "An error occurred while loading content."},
		{"validation", NewValidationError("Passwords do not match", nil), "Passwords do not match"},
		{"wrapped auth", fmt.Errorf("sign in: %w", NewAuthError("password", "Invalid email or password", nil)), "Invalid email or password"},
		{"fetch text", errors.New("failed to fetch"), "Network error. Please check your connection and try again."},
		{"unknown", errors.New("boom"), "An unexpected error occurred. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserFriendlyMessage(tt.err))
		})
	}
}

func TestHasCodeUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save: %w", NewDatabaseError("failed to write", cause))

	assert.True(t, HasCode(err, ErrCodeNetwork, ErrCodeDatabase))
	assert.False(t, HasCode(err, ErrCodeAuth))
	assert.False(t, HasCode(cause, ErrCodeDatabase))
	assert.ErrorIs(t, err, cause)
}

func TestAuthErrorCarriesField(t *testing.T) {
	err := NewAuthError("email", "An account with this email already exists", nil)
	assert.Equal(t, map[string]string{"email": "An account with this email already exists"}, err.Fields)
	assert.Nil(t, NewAuthError("", "x", nil).Fields)
	assert.Nil(t, NewValidationError("x", map[string]string{}).Fields)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewAuthError("", "no", nil), http.StatusUnauthorized},
		{NewNotFoundError("missing", nil), http.StatusNotFound},
		{NewAPIError(500, "upstream", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		HandleError(rec, tt.err)

		assert.Equal(t, tt.code, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
	}
}

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, rec.Body.String())
}
