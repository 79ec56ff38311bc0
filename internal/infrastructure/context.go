package infrastructure

import (
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID returns a random UUID used as request and trace ID when
// the client did not send one.
func GenerateTraceID() string {
	return uuid.NewString()
}

// WithComponent tags logger, or the global logger when nil, with a
// component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}
