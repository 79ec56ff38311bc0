package http

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mktpulse/internal/dataset"
	"mktpulse/internal/services"
	"mktpulse/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name           string
		dir            func(t *testing.T) string
		handler        func(h *HealthHandler) http.HandlerFunc
		expectedStatus int
		expectedState  string
	}{
		{
			name:           "health",
			dir:            func(t *testing.T) string { return t.TempDir() },
			handler:        func(h *HealthHandler) http.HandlerFunc { return h.HealthCheck },
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
		},
		{
			name:           "ready",
			dir:            func(t *testing.T) string { return testutil.MarketingDataset(t) },
			handler:        func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			expectedStatus: http.StatusOK,
			expectedState:  "ready",
		},
		{
			name:           "degraded",
			dir:            func(t *testing.T) string { return testutil.MarketingDataset(t, dataset.GeographicData) },
			handler:        func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			expectedStatus: http.StatusOK,
			expectedState:  "degraded",
		},
		{
			name:           "not ready",
			dir:            func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing") },
			handler:        func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "not_ready",
		},
		{
			name:           "live",
			dir:            func(t *testing.T) string { return t.TempDir() },
			handler:        func(h *HealthHandler) http.HandlerFunc { return h.LivenessCheck },
			expectedStatus: http.StatusOK,
			expectedState:  "alive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := dataset.NewLoader(tt.dir(t), nil)
			h := NewHealthHandler(services.NewHealthService(loader, logger), logger)

			rec := serve(tt.handler(h), http.MethodGet, "/api/health")

			require.Equal(t, tt.expectedStatus, rec.Code)
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedState, body.Status)
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService(dataset.NewLoader(t.TempDir(), nil), logger), logger)

	rec := serve(http.HandlerFunc(h.Version), http.MethodGet, "/api/version")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}
