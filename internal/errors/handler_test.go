package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mktpulse/internal/dataset"
	"mktpulse/internal/infrastructure"
	"mktpulse/internal/scoring"
	"mktpulse/internal/shared/testutil"
	"mktpulse/internal/table"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorToProblem(t *testing.T) {
	notFound := &dataset.NotFoundError{Dataset: "geographic_data", Path: "/data/geographic_data.csv"}
	mismatch := &dataset.SchemaMismatchError{Dataset: "product_sales", Missing: []string{"margin"}}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"dataset missing", notFound, http.StatusNotFound, TypeDataNotFound},
		{"wrapped dataset missing", fmt.Errorf("page: %w", notFound), http.StatusNotFound, TypeDataNotFound},
		{"schema mismatch", mismatch, http.StatusUnprocessableEntity, TypeDataCorrupted},
		{"unknown dataset", fmt.Errorf("%w: %q", dataset.ErrUnknownDataset, "x"), http.StatusBadRequest, TypeValidation},
		{"unknown column", dataset.ErrUnknownColumn, http.StatusBadRequest, TypeValidation},
		{"column type", dataset.ErrColumnType, http.StatusBadRequest, TypeValidation},
		{"granularity", table.ErrInvalidGranularity, http.StatusBadRequest, TypeValidation},
		{"threshold", scoring.ErrInvalidThreshold, http.StatusBadRequest, TypeValidation},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"api error", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"app not found", Unknown("page", "foo", nil), http.StatusNotFound, TypeNotFound},
		{"app validation", Invalid("bad op %q", "median"), http.StatusBadRequest, TypeValidation},
		{"app export", ExportFailed("funnel_data", "xlsx", fmt.Errorf("disk")), http.StatusInternalServerError, TypeExportFailed},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	h := NewErrorHandler(nil, false)
	req := httptest.NewRequest(http.MethodGet, "/api/datasets/x", nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, "/api/datasets/x", p.Instance)
		})
	}
}

func TestErrorToProblemExtensions(t *testing.T) {
	h := NewErrorHandler(nil, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	p := h.ErrorToProblem(&dataset.SchemaMismatchError{Dataset: "leads", Missing: []string{"a", "b"}}, req)
	assert.Equal(t, "leads", p.Extensions["dataset"])
	assert.Equal(t, []string{"a", "b"}, p.Extensions["missing_columns"])

	p = h.ErrorToProblem(ErrValidation("threshold", "must be at most 1"), req)
	assert.Equal(t, "VALIDATION_FAILED", p.Extensions["error_code"])
	assert.Equal(t, []ValidationError{{Field: "threshold", Message: "must be at most 1"}}, p.Extensions["errors"])

	p = h.ErrorToProblem(ExportFailed("funnel_data", "xlsx", io.ErrShortWrite), req)
	assert.Equal(t, "funnel_data", p.Extensions["dataset"])
	assert.Equal(t, "xlsx", p.Extensions["format"])
}

func TestHandleError(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/geographic_data", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, &dataset.NotFoundError{Dataset: "geographic_data", Path: "/d/geographic_data.csv"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	body := decodeProblem(t, rec)
	assert.Equal(t, TypeDataNotFound, body["type"])
	assert.Equal(t, float64(404), body["status"])
	assert.Equal(t, "geographic_data", body["dataset"])
	assert.Equal(t, "trace-1", body["trace_id"])

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "request failed")
	testutil.AssertLogAttr(t, handler, "status", int64(404))
}

func TestHandleErrorKeepsProblemMediaType(t *testing.T) {
	h := NewErrorHandler(nil, false)

	// API routes negotiate JSON through render.SetContentType
	failing := render.SetContentType(render.ContentTypeJSON)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.HandleError(w, r, ErrValidation("granularity", "must be one of D W M"))
	}))

	rec := httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pages/executive-overview?granularity=Y", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, TypeValidation, decodeProblem(t, rec)["type"])
}

func TestHandleErrorNil(t *testing.T) {
	h := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestRecoverer(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	h.Recoverer(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pages/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.Equal(t, "kaboom", body["panic"])
	assert.Contains(t, body, "stack")

	testutil.AssertLogContains(t, handler, slog.LevelError, "panic recovered")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(nil, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, TypeMethod, decodeProblem(t, rec)["type"])
}
