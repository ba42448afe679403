package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// MapCollectError maps collection domain errors to HTTP problem details.
// Used by the operations endpoints when a trigger or status request
// fails before any collection work starts.
func MapCollectError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/v1/operations#trace-%s", traceID)

	switch {
	case errors.Is(err, ErrOperationActive):
		return NewProblemDetails(
			http.StatusConflict,
			TypeOperationRunning,
			"Collection Already Running",
			"A collection operation is already in progress. Wait for it to finish before starting another.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "OPERATION_ALREADY_RUNNING")

	case errors.Is(err, ErrNoDataset):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeDataNotFound,
			"No Dataset Available",
			"No yield dataset has been collected yet. Trigger a collection first.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "NO_DATASET")

	case IsAutomationTimeout(err):
		var timeoutErr *AutomationTimeoutError
		errors.As(err, &timeoutErr)
		return NewProblemDetails(
			http.StatusBadGateway,
			TypeAutomationTimeout,
			"Portal Automation Timeout",
			err.Error(),
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "AUTOMATION_TIMEOUT").
			WithExtension("state", timeoutErr.State)

	case IsTransient(err):
		return NewProblemDetails(
			http.StatusBadGateway,
			TypeUpstreamFetch,
			"Upstream Fetch Failed",
			"The remote yield source could not be reached. The existing dataset is unchanged.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "TRANSIENT_FETCH")

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
