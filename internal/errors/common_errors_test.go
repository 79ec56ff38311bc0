package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"unknown page", Unknown("page", "revenue", nil), `not_found: page "revenue"`},
		{"invalid", Invalid("unsupported aggregate op %q", "median"), `validation: unsupported aggregate op "median"`},
		{"export with cause", ExportFailed("funnel_data", "xlsx", io.ErrShortWrite), "export: export funnel_data as xlsx: short write"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppErrorUnwrapAndFields(t *testing.T) {
	err := ExportFailed("funnel_data", "csv", io.EOF)

	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, "funnel_data", err.Fields["dataset"])
	assert.Equal(t, "csv", err.Fields["format"])

	var appErr *AppError
	require.True(t, errors.As(error(err), &appErr))
	assert.Equal(t, ErrTypeExport, appErr.Type)

	zero := &AppError{Type: ErrTypeValidation}
	zero.With("op", "median")
	assert.Equal(t, "median", zero.Fields["op"])
}

func TestAPIErrorHelpers(t *testing.T) {
	err := NotFoundError("dataset foo")
	assert.Equal(t, 404, err.StatusCode)
	assert.Equal(t, "dataset foo not found", err.Error())

	inv := InvalidRequestWithError(io.ErrUnexpectedEOF)
	assert.Equal(t, CodeInvalidRequest, inv.ErrorCode)
	assert.Equal(t, "unexpected EOF", inv.Details)

	v := ErrValidation("granularity", "must be one of D W M")
	assert.Equal(t, 400, v.StatusCode)
	assert.Equal(t, []ValidationError{{Field: "granularity", Message: "must be one of D W M"}}, v.Details)
}
