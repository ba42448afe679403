package operations

import (
	"sync"
	"time"

	"bondpulse/pkg/contracts/domain"
)

// StepDef names one step of a collection run.
type StepDef struct {
	ID   string
	Name string
}

// DefaultSteps returns the full pipeline: one step per data source.
// The merge and store phases run inside the final step's owner, they
// are not separately tracked.
func DefaultSteps() []StepDef {
	return []StepDef{
		{ID: domain.StepIDInvesting, Name: domain.StepNameInvesting},
		{ID: domain.StepIDKofia, Name: domain.StepNameKofia},
	}
}

type step struct {
	id          string
	name        string
	status      domain.StepStatus
	startedAt   *time.Time
	completedAt *time.Time
	rows        int
	columns     int
	err         string
}

// Run is the mutable state of one collection run. All mutators lock,
// then hand back a snapshot so the caller can publish the transition
// without re-reading shared state.
type Run struct {
	mu          sync.RWMutex
	id          string
	status      domain.OperationStatus
	fromDate    string
	toDate      string
	steps       []*step
	index       map[string]*step
	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time
	err         string
}

// NewRun creates a pending run over the given date window and steps.
// A zero from means "incremental per source" and stays blank in the
// snapshot.
func NewRun(id string, from, to time.Time, defs []StepDef) *Run {
	r := &Run{
		id:        id,
		status:    domain.OperationStatusPending,
		fromDate:  FormatDate(from),
		toDate:    FormatDate(to),
		index:     make(map[string]*step, len(defs)),
		createdAt: time.Now(),
	}
	for _, def := range defs {
		s := &step{id: def.ID, name: def.Name, status: domain.StepStatusPending}
		r.steps = append(r.steps, s)
		r.index[def.ID] = s
	}
	return r
}

// FormatDate renders a window boundary for snapshots and logs, blank
// for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Start marks the run as running.
func (r *Run) Start() domain.OperationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.status = domain.OperationStatusRunning
	r.startedAt = &now
	return r.snapshotLocked()
}

// StartStep marks one step as running. Unknown ids are ignored.
func (r *Run) StartStep(id string) domain.OperationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.index[id]; ok {
		now := time.Now()
		s.status = domain.StepStatusRunning
		s.startedAt = &now
	}
	return r.snapshotLocked()
}

// CompleteStep marks one step as completed with the collected shape.
func (r *Run) CompleteStep(id string, rows, columns int) domain.OperationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.index[id]; ok {
		now := time.Now()
		s.status = domain.StepStatusCompleted
		s.completedAt = &now
		s.rows = rows
		s.columns = columns
	}
	return r.snapshotLocked()
}

// FailStep marks one step as failed. The run itself keeps going; a
// failed source loses one day of data, it does not void the others.
func (r *Run) FailStep(id string, err error) domain.OperationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.index[id]; ok {
		now := time.Now()
		s.status = domain.StepStatusFailed
		s.completedAt = &now
		if err != nil {
			s.err = err.Error()
		}
	}
	return r.snapshotLocked()
}

// SkipStep marks one step as skipped (source not requested).
func (r *Run) SkipStep(id, reason string) domain.OperationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.index[id]; ok {
		s.status = domain.StepStatusSkipped
		s.err = reason
	}
	return r.snapshotLocked()
}

// Complete marks the run as completed.
func (r *Run) Complete() domain.OperationSnapshot {
	return r.finish(domain.OperationStatusCompleted, nil)
}

// Fail marks the run as failed.
func (r *Run) Fail(err error) domain.OperationSnapshot {
	return r.finish(domain.OperationStatusFailed, err)
}

// Cancel marks the run as cancelled.
func (r *Run) Cancel() domain.OperationSnapshot {
	return r.finish(domain.OperationStatusCancelled, nil)
}

func (r *Run) finish(status domain.OperationStatus, err error) domain.OperationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.status = status
	r.completedAt = &now
	if err != nil {
		r.err = err.Error()
	}
	return r.snapshotLocked()
}

// Snapshot returns a point-in-time copy safe to serialize.
func (r *Run) Snapshot() domain.OperationSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() domain.OperationSnapshot {
	snap := domain.OperationSnapshot{
		ID:        r.id,
		Status:    r.status,
		FromDate:  r.fromDate,
		ToDate:    r.toDate,
		Steps:     make([]domain.StepSnapshot, len(r.steps)),
		CreatedAt: r.createdAt,
		Error:     r.err,
	}
	snap.StartedAt = copyTime(r.startedAt)
	snap.CompletedAt = copyTime(r.completedAt)
	for i, s := range r.steps {
		snap.Steps[i] = domain.StepSnapshot{
			ID:          s.id,
			Name:        s.name,
			Status:      s.status,
			StartedAt:   copyTime(s.startedAt),
			CompletedAt: copyTime(s.completedAt),
			Rows:        s.rows,
			Columns:     s.columns,
			Error:       s.err,
		}
	}
	return snap
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
