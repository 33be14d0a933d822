package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError represents an application error
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error codes
const (
	ErrCodeNetwork       = "NETWORK_ERROR"
	ErrCodeAPI           = "API_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeAuth          = "AUTH_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeDatabase      = "DATABASE_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
)

// NewNetworkError reports a connectivity failure or timeout
func NewNetworkError(message string, err error) *AppError {
	return NewAppError(ErrCodeNetwork, message, err)
}

// NewAPIError reports a non-2xx provider response
func NewAPIError(status int, message string, err error) *AppError {
	appErr := NewAppError(ErrCodeAPI, message, err)
	appErr.Status = status
	return appErr
}

// NewValidationError reports invalid input. fields maps a form field to its message.
func NewValidationError(message string, fields map[string]string) *AppError {
	appErr := NewAppError(ErrCodeValidation, message, nil)
	if len(fields) > 0 {
		appErr.Fields = fields
	}
	return appErr
}

// NewAuthError reports a credential mismatch or a duplicate registration
func NewAuthError(field, message string, err error) *AppError {
	appErr := NewAppError(ErrCodeAuth, message, err)
	if field != "" {
		appErr.Fields = map[string]string{field: message}
	}
	return appErr
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrCodeNotFound, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(ErrCodeInternal, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrCodeDatabase, message, err)
}

func NewConfigurationError(message string, err error) *AppError {
	return NewAppError(ErrCodeConfiguration, message, err)
}

// HasCode reports whether err is an AppError carrying one of codes
func HasCode(err error, codes ...string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	for _, code := range codes {
		if appErr.Code == code {
			return true
		}
	}
	return false
}

// UserFriendlyMessage turns an error into text suitable for a notification
func UserFriendlyMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrCodeNetwork:
			return appErr.Message
		case ErrCodeAPI:
			switch {
			case appErr.Status >= 500:
				return "Server error. Please try again later."
			case appErr.Status == http.StatusNotFound:
				return "Content not found."
			case appErr.Status == http.StatusTooManyRequests:
				return "Too many requests. Please wait a moment and try again."
			}
			return "An error occurred while loading content."
		case ErrCodeValidation, ErrCodeAuth:
			return appErr.Message
		}
	}

	if err != nil && strings.Contains(strings.ToLower(err.Error()), "fetch") {
		return "Network error. Please check your connection and try again."
	}

	return "An unexpected error occurred. Please try again."
}

// ErrorResponse represents an error response for API endpoints
type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
	Retry   bool      `json:"retry,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *AppError) *ErrorResponse {
	return &ErrorResponse{
		Error:   err,
		Success: false,
	}
}

// WriteErrorResponse writes an error response to an HTTP response writer
func WriteErrorResponse(w http.ResponseWriter, statusCode int, err *AppError) {
	writeJSON(w, statusCode, NewErrorResponse(err))
}

// WriteJSON writes a success envelope around data
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already out; nothing sensible left to send
		return
	}
}

// GetHTTPStatusCode returns the appropriate HTTP status code for an error
func GetHTTPStatusCode(err *AppError) int {
	switch err.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeAuth:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeNetwork, ErrCodeAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError handles an error and writes an appropriate HTTP response
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		// Convert generic error to internal error
		appErr = NewInternalError("An unexpected error occurred", err)
	}

	WriteErrorResponse(w, GetHTTPStatusCode(appErr), appErr)
}
