package core

import (
	"errors"
	"fmt"
	"net/http"
)

// RecoveryFunc is invoked with every error a Boundary catches
type RecoveryFunc func(err error)

// RecoveredError marks an error that a Boundary caught and handed to its recovery callback
type RecoveredError struct {
	Err error
}

func (e *RecoveredError) Error() string {
	return "recovered: " + e.Err.Error()
}

func (e *RecoveredError) Unwrap() error {
	return e.Err
}

// Boundary is a supervisory wrapper around a unit of work. It converts panics
// into INTERNAL_ERROR values and catches the declared error codes, passing
// them to the recovery callback. Nothing on this path touches persisted state.
type Boundary struct {
	logger    *Logger
	codes     []string
	onRecover RecoveryFunc
}

// NewBoundary creates a boundary catching codes. INTERNAL_ERROR is always caught.
func NewBoundary(logger *Logger, onRecover RecoveryFunc, codes ...string) *Boundary {
	return &Boundary{
		logger:    logger,
		codes:     append([]string{ErrCodeInternal}, codes...),
		onRecover: onRecover,
	}
}

// Catches reports whether err belongs to the declared set
func (b *Boundary) Catches(err error) bool {
	return err != nil && HasCode(err, b.codes...)
}

// Run executes fn under the boundary. Caught errors come back wrapped in
// *RecoveredError; all other errors are returned unchanged.
func (b *Boundary) Run(fn func() error) error {
	err := b.call(fn)
	if !b.Catches(err) {
		return err
	}

	b.logger.Error("Boundary recovered from error", "error", err)
	if b.onRecover != nil {
		b.onRecover(err)
	}
	return &RecoveredError{Err: err}
}

func (b *Boundary) call(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler {
				panic(p)
			}
			err = NewInternalError("unexpected runtime error", fmt.Errorf("panic: %v", p))
		}
	}()
	return fn()
}

// Middleware renders a generic recovery response with a retry hint when a
// handler panics, leaving the process and its state intact.
func (b *Boundary) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}

		err := b.Run(func() error {
			next.ServeHTTP(tw, r)
			return nil
		})

		var recovered *RecoveredError
		if errors.As(err, &recovered) && !tw.wroteHeader {
			writeJSON(w, http.StatusInternalServerError, &ErrorResponse{
				Error:   NewInternalError("Something went wrong. Please try again.", nil),
				Success: false,
				Retry:   true,
			})
		}
	})
}

type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(statusCode int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}
