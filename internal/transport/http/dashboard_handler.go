package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"econdash/internal/errors"
	"econdash/internal/logging"
	"econdash/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler serves the dataset views.
type DashboardHandler struct {
	service DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("handler", "dashboard").Logger(),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/currencies", h.GetCurrencies)
	r.Route("/currencies/{code}", func(r chi.Router) {
		r.Use(CurrencyCtx)
		r.Get("/groups", h.GetGroups)
		r.Get("/tags", h.GetTags)
		r.Get("/series/{tag}", h.GetSeries)
	})
	r.Get("/indicators/{tag}", h.GetIndicator)
	r.Get("/coverage", h.GetCoverage)
	r.Get("/calendar", h.GetCalendar)
	r.With(CurrencyCtx).Get("/history/{code}", h.GetHistory)
	r.Post("/refresh", h.PostRefresh)
	return r
}

// CurrencyCtx rejects anything that is not a three-letter currency code.
func CurrencyCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if len(code) != 3 {
			writeError(w, r, errors.NewValidationError("code", code, "expected a three-letter currency code"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// fail logs err at a level matching its status and writes the problem document.
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := logging.FromContext(r.Context())
	if statusFor(err) >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("operation", op).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Str("operation", op).Msg("Request rejected")
	}
	writeError(w, r, err)
}

// GetSummary handles GET /api/summary.
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	render.JSON(w, r, summary)
}

// GetCurrencies handles GET /api/currencies.
func (h *DashboardHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.service.Currencies(r.Context())
	if err != nil {
		h.fail(w, r, "currencies", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  currencies,
		"count": len(currencies),
	})
}

// GetGroups handles GET /api/currencies/{code}/groups.
func (h *DashboardHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	column, err := parseColumn(r)
	if err != nil {
		h.fail(w, r, "groups", err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, "groups", err)
		return
	}
	view, err := h.service.CurrencyView(r.Context(), chi.URLParam(r, "code"), column, filter)
	if err != nil {
		h.fail(w, r, "groups", err)
		return
	}
	render.JSON(w, r, view)
}

// GetTags handles GET /api/currencies/{code}/tags.
func (h *DashboardHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.Tags(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, "tags", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  tags,
		"count": len(tags),
	})
}

// GetSeries handles GET /api/currencies/{code}/series/{tag}.
func (h *DashboardHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	column, err := parseColumn(r)
	if err != nil {
		h.fail(w, r, "series", err)
		return
	}
	series, err := h.service.Series(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "tag"), column)
	if err != nil {
		h.fail(w, r, "series", err)
		return
	}
	render.JSON(w, r, series)
}

// GetIndicator handles GET /api/indicators/{tag}.
func (h *DashboardHandler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	column, err := parseColumn(r)
	if err != nil {
		h.fail(w, r, "indicator", err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, "indicator", err)
		return
	}
	view, err := h.service.IndicatorView(r.Context(), chi.URLParam(r, "tag"), column, filter)
	if err != nil {
		h.fail(w, r, "indicator", err)
		return
	}
	render.JSON(w, r, view)
}

// GetCoverage handles GET /api/coverage.
func (h *DashboardHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	cov, err := h.service.Coverage(r.Context())
	if err != nil {
		h.fail(w, r, "coverage", err)
		return
	}
	render.JSON(w, r, cov)
}

// GetCalendar handles GET /api/calendar?from=&to=&importance=&currency=.
func (h *DashboardHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		h.fail(w, r, "calendar", err)
		return
	}
	q := report.CalendarQuery{
		From:       from,
		To:         to,
		Importance: splitList(r, "importance"),
		Currencies: splitList(r, "currency"),
	}
	days, err := h.service.Calendar(r.Context(), q)
	if err != nil {
		h.fail(w, r, "calendar", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  days,
		"count": len(days),
	})
}

// GetHistory handles GET /api/history/{code}. With ?format=xlsx the table is
// sent as a workbook download.
func (h *DashboardHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	column, err := parseColumn(r)
	if err != nil {
		h.fail(w, r, "history", err)
		return
	}
	years, err := parsePositiveInt(r, "years")
	if err != nil {
		h.fail(w, r, "history", err)
		return
	}
	table, err := h.service.History(r.Context(), report.HistoryQuery{
		Currency: chi.URLParam(r, "code"),
		Column:   column,
		Years:    years,
	})
	if err != nil {
		h.fail(w, r, "history", err)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		render.JSON(w, r, table)
	case "xlsx":
		var buf bytes.Buffer
		if err := report.WriteHistoryXLSX(&buf, table); err != nil {
			h.fail(w, r, "history", err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "history_"+table.Currency+".xlsx"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	default:
		h.fail(w, r, "history", errors.NewValidationError("format", r.URL.Query().Get("format"), "expected json or xlsx"))
	}
}

// PostRefresh handles POST /api/refresh?force=true.
func (h *DashboardHandler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	result, err := h.service.Refresh(r.Context(), force)
	if err != nil {
		h.fail(w, r, "refresh", err)
		return
	}
	h.logger.Info().
		Bool("forced", force).
		Int("refreshed", result.Refreshed).
		Int("failed", result.Failed).
		Msg("Refresh requested over HTTP")
	render.JSON(w, r, result)
}
