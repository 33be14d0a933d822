package core

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger provides structured logging for curator
type Logger struct {
	*slog.Logger
	level    *slog.LevelVar
	mu       *sync.Mutex
	features map[string]*slog.Logger
}

// NewLogger creates a new logger writing to stdout at info level
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, slog.LevelInfo)
}

// NewLoggerWithWriter creates a logger writing text records to w
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelVar,
	})

	return &Logger{
		Logger:   slog.New(handler),
		level:    levelVar,
		mu:       &sync.Mutex{},
		features: make(map[string]*slog.Logger),
	}
}

// NewDiscardLogger returns a logger that drops every record. Used by tests.
func NewDiscardLogger() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError)
}

// ForFeature returns a logger specific to a feature
func (l *Logger) ForFeature(featureName string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	featureLogger, exists := l.features[featureName]
	if !exists {
		featureLogger = l.Logger.With("feature", featureName)
		l.features[featureName] = featureLogger
	}

	return l.derive(featureLogger)
}

// WithUser returns a logger with user context
func (l *Logger) WithUser(email string) *Logger {
	return l.derive(l.Logger.With("user_email", email))
}

// SetLevel changes the minimum level for this logger and every logger derived from it
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// LogFeatureError logs a feature-specific error
func (l *Logger) LogFeatureError(featureName, message string, err error, attrs ...any) {
	featureLogger := l.ForFeature(featureName)
	allAttrs := append([]any{"error", err}, attrs...)
	featureLogger.Error(message, allAttrs...)
}

func (l *Logger) derive(logger *slog.Logger) *Logger {
	return &Logger{
		Logger:   logger,
		level:    l.level,
		mu:       l.mu,
		features: l.features,
	}
}
