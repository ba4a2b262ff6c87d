package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/services"
)

// SessionProvider supplies the processed dataset session for a request.
type SessionProvider interface {
	Session(ctx context.Context) (*services.Session, error)
}

// SummaryHandler serves KPI and summary-view endpoints backed by the cached
// dataset session.
type SummaryHandler struct {
	provider SessionProvider
	logger   *slog.Logger
}

// NewSummaryHandler creates a summary handler.
func NewSummaryHandler(provider SessionProvider, logger *slog.Logger) *SummaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryHandler{
		provider: provider,
		logger:   logger.With(slog.String("handler", "summary")),
	}
}

// Routes returns the summary routes.
func (h *SummaryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/kpis", h.GetKPIs)
	r.Get("/summary/{view}", h.GetView)
	return r
}

// GetKPIs handles GET /api/kpis.
func (h *SummaryHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	session, err := h.provider.Session(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"kpis":        session.KPIs,
		"records":     len(session.Table.Records),
		"fingerprint": session.Fingerprint,
		"loaded_at":   session.LoadedAt,
	})
}

// GetView handles GET /api/summary/{view}.
func (h *SummaryHandler) GetView(w http.ResponseWriter, r *http.Request) {
	session, err := h.provider.Session(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	view := chi.URLParam(r, "view")
	body, ok := selectView(session.Views, view)
	if !ok {
		h.renderError(w, r, apperrors.NewNotFoundError("summary view "+view))
		return
	}

	render.JSON(w, r, map[string]any{
		"view": view,
		"rows": body,
	})
}

// selectView maps a URL view name onto one of the computed views.
func selectView(views *dataprocessing.Views, name string) (any, bool) {
	switch name {
	case "monthly":
		return views.Monthly, true
	case "daily":
		return views.Daily, true
	case "weekly":
		return views.Weekly, true
	case "foodtype-monthly":
		return views.FoodTypeMonthly, true
	case "states":
		return views.States, true
	case "quarters":
		return views.Quarters, true
	case "top-cities":
		return views.TopCities, true
	default:
		return nil, false
	}
}

func (h *SummaryHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	apperrors.WriteProblem(w, r, apperrors.ProblemFromError(err, r))
}
