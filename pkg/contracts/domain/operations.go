package domain

import (
	"time"
)

// A collection run is modeled as an Operation with one Step per data
// source. Runs are serialized: the portal browser is a singleton
// resource, so at most one operation executes at a time.

// OperationStatus represents the status of a collection run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// StepStatus represents the status of one source step within a run
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Step identifiers (one per data source plus the merge stage)
const (
	StepIDInvesting = "investing"
	StepIDKofia     = "kofia"
)

// Step names
const (
	StepNameInvesting = "Global Treasury Collection"
	StepNameKofia     = "KOFIA Portal Collection"
)

// OperationSnapshot is a point-in-time copy of a run's state, safe to
// serialize and broadcast. Produced by cloning the mutable run state.
type OperationSnapshot struct {
	ID          string          `json:"id"`
	Status      OperationStatus `json:"status"`
	FromDate    string          `json:"from_date,omitempty"`
	ToDate      string          `json:"to_date,omitempty"`
	Steps       []StepSnapshot  `json:"steps"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// StepSnapshot is the serialized state of one source step.
type StepSnapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Rows        int        `json:"rows,omitempty"`
	Columns     int        `json:"columns,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Duration returns the wall time of a completed run, zero otherwise.
func (o *OperationSnapshot) Duration() time.Duration {
	if o.StartedAt == nil || o.CompletedAt == nil {
		return 0
	}
	return o.CompletedAt.Sub(*o.StartedAt)
}

// IsTerminal reports whether the run has finished, successfully or not.
func (o *OperationSnapshot) IsTerminal() bool {
	switch o.Status {
	case OperationStatusCompleted, OperationStatusFailed, OperationStatusCancelled:
		return true
	}
	return false
}

// OperationResponse is returned when a run is accepted.
type OperationResponse struct {
	OperationID  string          `json:"operation_id"`
	Status       OperationStatus `json:"status"`
	Message      string          `json:"message"`
	StartedAt    time.Time       `json:"started_at"`
	WebSocketURL string          `json:"websocket_url,omitempty"`
}
