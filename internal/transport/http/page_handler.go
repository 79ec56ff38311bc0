package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "mktpulse/internal/errors"
	"mktpulse/internal/middleware"
	"mktpulse/internal/services"
	api "mktpulse/pkg/contracts/api/v1"
)

// PageHandler serves the dashboard pages
type PageHandler struct {
	service      PageService
	binder       *middleware.QueryBinder
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler creates a new page handler
func NewPageHandler(service PageService, binder *middleware.QueryBinder, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		service:      service,
		binder:       binder,
		logger:       logger.With(slog.String("handler", "pages")),
		errorHandler: errorHandler,
	}
}

// Routes returns the page routes
func (h *PageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListPages)
	r.Get("/{page}", h.GetPage)
	return r
}

// ListPages handles GET /api/pages
func (h *PageHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages := services.Pages()
	render.JSON(w, r, map[string]any{
		"pages": pages,
		"count": len(pages),
	})
}

// GetPage handles GET /api/pages/{page}
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	var req api.PageRequest
	if err := h.binder.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page := chi.URLParam(r, "page")
	resp, err := h.service.Render(r.Context(), page, req)
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}

	if n := resp.NoticeCount(); n > 0 {
		h.logger.DebugContext(r.Context(), "Page rendered with notices",
			slog.String("page", page),
			slog.Int("notices", n))
	}
	render.JSON(w, r, resp)
}
