package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bondpulse/internal/errors"
	"bondpulse/internal/middleware"
)

// DataHandler serves the read-side yield endpoints with RFC 7807 errors
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	dates        *middleware.QueryParamValidator
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "data")),
		errorHandler: errorHandler,
		dates:        middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the yield data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Use render for consistent JSON responses
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetYields)
	r.Get("/summary", h.GetSummary)
	r.Get("/curves", h.GetCurves)

	r.Route("/curve/{country}", func(r chi.Router) {
		r.Use(h.CountryCtx) // Validate country code
		r.Get("/", h.GetCurve)
	})

	// Report generation and download
	r.Post("/export", h.ExportReports)
	r.Get("/workbook", h.DownloadWorkbook)

	return r
}

// CountryCtx middleware validates the country code parameter
func (h *DataHandler) CountryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		country := chi.URLParam(r, "country")
		if len(country) != 2 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("country", "Country must be a two-letter ISO code"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetYields handles GET /api/v1/yields with optional from/to bounds
func (h *DataHandler) GetYields(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	from, ok := h.dates.ValidateDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := h.dates.ValidateDate(w, r, "to")
	if !ok {
		return
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("from", "from must not be after to"))
		return
	}

	h.logger.InfoContext(r.Context(), "fetching yields",
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	table, err := h.service.Yields(r.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get yields",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records := table.Records()
	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"data":    records,
		"count":   len(records),
		"columns": table.Columns(),
	})
}

// GetSummary handles GET /api/v1/yields/summary with an optional
// reference date, defaulting to the latest stored date
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	date, ok := h.dates.ValidateDate(w, r, "date")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "building change summary",
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	summary, err := h.service.Summary(r.Context(), date)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build summary",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
		"count":  len(summary.Rows),
	})
}

// GetCurve handles GET /api/v1/yields/curve/{country} with an optional
// reference date
func (h *DataHandler) GetCurve(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	country := chi.URLParam(r, "country")

	date, ok := h.dates.ValidateDate(w, r, "date")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "building curve snapshot",
		slog.String("request_id", reqID),
		slog.String("country", country),
	)

	curve, err := h.service.Curve(r.Context(), country, date)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build curve",
			slog.String("error", err.Error()),
			slog.String("country", country),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   curve,
	})
}

// GetCurves handles GET /api/v1/yields/curves, returning a snapshot per
// country that has data
func (h *DataHandler) GetCurves(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	date, ok := h.dates.ValidateDate(w, r, "date")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "building curve snapshots",
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	curves, err := h.service.Curves(r.Context(), date)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build curves",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   curves,
		"count":  len(curves),
	})
}

// ExportReports handles POST /api/v1/yields/export, regenerating the
// workbook and the CSV reports from the stored datasets
func (h *DataHandler) ExportReports(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	date, ok := h.dates.ValidateDate(w, r, "date")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "exporting reports",
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	workbook, err := h.service.ExportWorkbook(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to export workbook",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	reports, err := h.service.ExportReports(r.Context(), date)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to export reports",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	names := make([]string, 0, len(reports))
	for _, path := range reports {
		names = append(names, filepath.Base(path))
	}

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"workbook": filepath.Base(workbook),
		"reports":  names,
	})
}

// DownloadWorkbook handles GET /api/v1/yields/workbook, serving the
// most recently generated workbook file
func (h *DataHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	info, ok := h.service.LatestWorkbook()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"NO_WORKBOOK",
			"No workbook has been generated yet",
		))
		return
	}

	h.logger.InfoContext(r.Context(), "serving workbook",
		slog.String("request_id", reqID),
		slog.String("file", info.Name),
		slog.Int64("size_bytes", info.Size),
	)

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, info.Path)
}
