package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "mktpulse/internal/errors"
)

// CacheHandler exposes the dataset cache for inspection and invalidation
type CacheHandler struct {
	datasets     DatasetService
	pages        PageService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(datasets DatasetService, pages PageService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *CacheHandler {
	return &CacheHandler{
		datasets:     datasets,
		pages:        pages,
		logger:       logger.With(slog.String("handler", "cache")),
		errorHandler: errorHandler,
	}
}

// Routes returns the cache routes
func (h *CacheHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.Stats)
	r.Delete("/", h.Clear)
	r.Delete("/{name}", h.Invalidate)
	return r
}

// Stats handles GET /api/cache
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.datasets.CacheStats())
}

// Clear handles DELETE /api/cache. Memoized page data goes with it.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n := h.datasets.ClearCache()
	h.pages.ClearMemo()
	h.logger.InfoContext(r.Context(), "Cache cleared", slog.Int("entries", n))
	render.JSON(w, r, map[string]any{
		"status":  "success",
		"cleared": n,
	})
}

// Invalidate handles DELETE /api/cache/{name}
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := h.datasets.Invalidate(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status":      "success",
		"dataset":     name,
		"invalidated": removed,
	})
}
