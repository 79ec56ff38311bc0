package http

import (
	"net/http"

	apierrors "mktpulse/internal/errors"
)

// MetricsHandler serves the Prometheus exposition when metrics are enabled
type MetricsHandler struct {
	handler      http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps the exporter handler. A nil handler answers 503.
func NewMetricsHandler(handler http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{handler: handler, errorHandler: errorHandler}
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.handler == nil {
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusServiceUnavailable, "METRICS_DISABLED", "Metrics are disabled"))
		return
	}
	h.handler.ServeHTTP(w, r)
}
