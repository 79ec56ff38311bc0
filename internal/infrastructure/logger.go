package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mktpulse/internal/config"
)

type contextKey string

// TraceIDContextKey holds the request-scoped trace ID.
const TraceIDContextKey contextKey = "trace_id"

// logState is the process-wide logger and the file it writes to, if any.
var logState struct {
	once   sync.Once
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// InitializeLogger builds the process logger from cfg and installs it as
// slog's default. Later calls return the first logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	logState.once.Do(func() {
		logState.logger, err = NewLogger(cfg)
		if logState.logger != nil {
			slog.SetDefault(logState.logger)
		}
	})
	return logState.logger, err
}

// GetLogger returns the process logger or slog.Default before
// initialization.
func GetLogger() *slog.Logger {
	if logState.logger == nil {
		return slog.Default()
	}
	return logState.logger
}

// NewLogger builds a JSON logger for cfg.
//
//	console  stdout (default)
//	file     cfg.FilePath, appended
//	both     stdout and cfg.FilePath
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return NewLoggerWithWriter(os.Stdout, cfg.Level), nil
	}

	file, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logState.mu.Lock()
	logState.file = file
	logState.mu.Unlock()

	var w io.Writer = file
	if mode == "both" {
		w = io.MultiWriter(os.Stdout, file)
	}
	return NewLoggerWithWriter(w, cfg.Level), nil
}

// NewLoggerWithWriter builds the JSON logger on w. Records carry the
// source location and the request's trace ID.
func NewLoggerWithWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(traceHandler{slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(level),
	})})
}

// traceHandler stamps trace_id on records. The request ID set by the
// middleware wins over the active span's ID.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	id := GetTraceID(ctx)
	if id == "" {
		id = TraceIDFromContext(ctx)
	}
	if id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID stored by WithTraceID, or "".
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// CloseLogFile closes the log file opened by NewLogger, if any.
func CloseLogFile() error {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	if logState.file == nil {
		return nil
	}
	err := logState.file.Close()
	logState.file = nil
	return err
}

// ResetLoggerForTesting drops the process logger. Tests only.
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	logState.logger = nil
	logState.once = sync.Once{}
}

func openLogFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
