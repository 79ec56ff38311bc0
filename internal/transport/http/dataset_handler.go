package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"mktpulse/internal/dataset"
	apierrors "mktpulse/internal/errors"
	"mktpulse/internal/exporter"
	"mktpulse/internal/middleware"
	api "mktpulse/pkg/contracts/api/v1"
)

// DatasetHandler serves the raw datasets and their ad-hoc queries
type DatasetHandler struct {
	service      DatasetService
	binder       *middleware.QueryBinder
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetService, binder *middleware.QueryBinder, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		binder:       binder,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Route("/{name}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.Records)
		r.Get("/aggregate", h.Aggregate)
		r.Get("/resample", h.Resample)
		r.Get("/top", h.Top)
		r.Get("/export", h.Export)
	})
	return r
}

// DatasetCtx rejects names that are not known datasets
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if _, err := dataset.FileName(name); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// List handles GET /api/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.service.List(r.Context())
	render.JSON(w, r, map[string]any{
		"datasets": infos,
		"count":    len(infos),
	})
}

// Records handles GET /api/datasets/{name}
func (h *DatasetHandler) Records(w http.ResponseWriter, r *http.Request) {
	var req api.RecordsRequest
	if err := h.binder.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	page, err := h.service.Records(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// Aggregate handles GET /api/datasets/{name}/aggregate
func (h *DatasetHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req api.AggregateRequest
	if err := h.binder.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	result, err := h.service.Aggregate(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Resample handles GET /api/datasets/{name}/resample
func (h *DatasetHandler) Resample(w http.ResponseWriter, r *http.Request) {
	var req api.ResampleRequest
	if err := h.binder.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	result, err := h.service.Resample(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Top handles GET /api/datasets/{name}/top
func (h *DatasetHandler) Top(w http.ResponseWriter, r *http.Request) {
	var req api.TopRequest
	if err := h.binder.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	result, err := h.service.Top(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Export handles GET /api/datasets/{name}/export. The dataset is loaded
// before any header is written so load failures still produce a problem
// response.
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := h.binder.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	name := chi.URLParam(r, "name")
	frame, err := h.service.Open(r.Context(), name)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exporter.FileName(name, format)))

	n, err := h.service.Export(r.Context(), w, frame, format, exporter.Options{BOM: req.BOM})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Export interrupted",
			slog.String("dataset", name),
			slog.String("format", string(format)),
			slog.Int("rows", n),
			slog.String("error", err.Error()))
	}
}
