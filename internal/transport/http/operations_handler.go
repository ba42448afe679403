package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bondpulse/internal/config"
	apierrors "bondpulse/internal/errors"
	"bondpulse/internal/infrastructure"
	"bondpulse/internal/middleware"
	"bondpulse/internal/services"
	api "bondpulse/pkg/contracts/api/v1"
	"bondpulse/pkg/contracts/domain"
)

// OperationsHandler handles collection run control requests
type OperationsHandler struct {
	service      CollectionServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
	metrics      *infrastructure.CollectionMetrics
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service CollectionServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OperationsHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "operations")),
		errorHandler: errorHandler,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// SetMetrics sets the collection metrics for the handler
func (h *OperationsHandler) SetMetrics(metrics *infrastructure.CollectionMetrics) {
	h.metrics = metrics
}

// Routes returns a chi router for operations endpoints
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(middleware.ContentTypeValidator("application/json")).Post("/collect", h.StartCollection)
	r.Get("/", h.ListOperations)
	r.Get("/active", h.ActiveOperation)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.OperationCtx) // Validate operation ID
		r.Get("/", h.GetOperationStatus)
		r.Post("/stop", h.StopOperation)
	})

	return r
}

// OperationCtx middleware validates the operation ID parameter
func (h *OperationsHandler) OperationCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Operation ID is required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// StartCollection handles POST /api/v1/operations/collect. The run is
// accepted and executed in the background; progress is broadcast over
// the WebSocket hub.
func (h *OperationsHandler) StartCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.start_collection",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/v1/operations/collect"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "collection run requested",
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)),
	)

	// Decode and validate request. An empty body is a valid trigger
	// with the incremental default window.
	var body api.CollectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			span.RecordError(err)
			h.logger.ErrorContext(ctx, "failed to decode collect request",
				slog.String("error", err.Error()),
				slog.String("request_id", reqID),
			)
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusBadRequest,
				"INVALID_JSON",
				"Request body is not valid JSON",
			))
			return
		}
	}
	if err := h.validation.ValidateStruct(&body); err != nil {
		span.RecordError(err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	req, err := collectRequestFromAPI(body)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.StringSlice("collect.sources", body.Sources),
		attribute.String("collect.from_date", body.FromDate),
		attribute.String("collect.to_date", body.ToDate),
	)

	snapshot, err := h.service.Start(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collection start failed")

		h.logger.ErrorContext(ctx, "failed to start collection run",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)

		switch {
		case errors.Is(err, services.ErrInvalidDateRange):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusBadRequest,
				"INVALID_DATE_RANGE",
				err.Error(),
			))
		case errors.Is(err, services.ErrUnknownSource):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusBadRequest,
				"UNKNOWN_SOURCE",
				err.Error(),
			))
		default:
			// ErrOperationActive maps to 409 in the error handler
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	span.SetAttributes(attribute.String("operation.id", snapshot.ID))

	h.logger.InfoContext(ctx, "collection run accepted",
		slog.String("operation_id", snapshot.ID),
		slog.String("request_id", reqID),
	)

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, domain.OperationResponse{
		OperationID:  snapshot.ID,
		Status:       snapshot.Status,
		Message:      "Collection run accepted",
		StartedAt:    snapshot.CreatedAt,
		WebSocketURL: config.WebSocketEndpoint,
	})
}

// GetOperationStatus handles GET /api/v1/operations/{id}
func (h *OperationsHandler) GetOperationStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	operationID := chi.URLParam(r, "id")

	h.logger.DebugContext(r.Context(), "operation status request",
		slog.String("operation_id", operationID),
		slog.String("request_id", reqID),
	)

	snapshot, ok := h.service.Status(operationID)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"OPERATION_NOT_FOUND",
			fmt.Sprintf("No operation with ID %s", operationID),
		))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   snapshot,
	})
}

// ListOperations handles GET /api/v1/operations with an optional
// status filter
func (h *OperationsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	statusFilter := r.URL.Query().Get("status")

	h.logger.DebugContext(r.Context(), "listing operations",
		slog.String("status_filter", statusFilter),
		slog.String("request_id", reqID),
	)

	if statusFilter != "" && !validOperationStatus(statusFilter) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("status",
			fmt.Sprintf("Invalid status filter: %s", statusFilter)))
		return
	}

	list := h.service.List()
	if statusFilter != "" {
		filtered := make([]domain.OperationSnapshot, 0, len(list))
		for _, snapshot := range list {
			if string(snapshot.Status) == statusFilter {
				filtered = append(filtered, snapshot)
			}
		}
		list = filtered
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   list,
		"count":  len(list),
	})
}

// ActiveOperation handles GET /api/v1/operations/active
func (h *OperationsHandler) ActiveOperation(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.service.Active()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"NO_ACTIVE_OPERATION",
			"No collection run is currently active",
		))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   snapshot,
	})
}

// StopOperation handles POST /api/v1/operations/{id}/stop
func (h *OperationsHandler) StopOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")
	reqID := middleware.GetRequestID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.stop_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/v1/operations/{id}/stop"),
			attribute.String("operation.id", operationID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "operation stop request",
		slog.String("operation_id", operationID),
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)),
	)

	if !h.service.Cancel(operationID) {
		span.SetStatus(codes.Error, "operation not cancellable")

		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"OPERATION_NOT_CANCELLABLE",
			fmt.Sprintf("No running operation with ID %s", operationID),
		))
		return
	}

	if h.metrics != nil {
		infrastructure.RecordOperationCancellation(ctx, h.metrics, operationID, "collection", "user_requested")
	}

	h.logger.InfoContext(ctx, "operation cancellation requested",
		slog.String("operation_id", operationID),
		slog.String("request_id", reqID),
	)

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"message": fmt.Sprintf("Cancellation requested for operation %s", operationID),
	})
}

// collectRequestFromAPI converts the wire request to the service form.
// Dates were already validated against the ISO layout.
func collectRequestFromAPI(body api.CollectRequest) (services.CollectRequest, error) {
	req := services.CollectRequest{
		Sources:  body.Sources,
		Headless: body.Headless,
	}

	if body.FromDate != "" {
		from, err := time.Parse(config.DateFormatISO, body.FromDate)
		if err != nil {
			return req, apierrors.ErrValidation("from_date", "from_date must be a date in YYYY-MM-DD format")
		}
		req.From = from
	}
	if body.ToDate != "" {
		to, err := time.Parse(config.DateFormatISO, body.ToDate)
		if err != nil {
			return req, apierrors.ErrValidation("to_date", "to_date must be a date in YYYY-MM-DD format")
		}
		req.To = to
	}

	return req, nil
}

func validOperationStatus(status string) bool {
	switch domain.OperationStatus(status) {
	case domain.OperationStatusPending, domain.OperationStatusRunning,
		domain.OperationStatusCompleted, domain.OperationStatusFailed,
		domain.OperationStatusCancelled:
		return true
	}
	return false
}
