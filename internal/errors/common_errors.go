package errors

import (
	"fmt"
	"strings"
)

// ErrorType classifies a service failure for the HTTP layer.
type ErrorType string

const (
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeExport     ErrorType = "EXPORT"
)

// AppError is raised by services. Fields end up as problem extensions.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Fields  map[string]any
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Type)))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// With attaches a field and returns the same error.
func (e *AppError) With(key string, value any) *AppError {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[key] = value
	return e
}

// NewAppError builds an AppError of the given type.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// Unknown reports a page, dataset or column that does not exist.
func Unknown(kind, name string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s %q", kind, name), cause).With(kind, name)
}

// Invalid reports a rejected query parameter combination.
func Invalid(format string, args ...any) *AppError {
	return NewAppError(ErrTypeValidation, fmt.Sprintf(format, args...), nil)
}

// ExportFailed wraps a writer error raised while streaming an export.
func ExportFailed(datasetName, format string, cause error) *AppError {
	return NewAppError(ErrTypeExport, fmt.Sprintf("export %s as %s", datasetName, format), cause).
		With("dataset", datasetName).
		With("format", format)
}
