package operations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

// defaultHistoryLimit bounds how many finished runs stay queryable.
const defaultHistoryLimit = 50

// Broadcaster pushes run snapshots to connected clients. The websocket
// hub implements it; a nil broadcaster is a no-op.
type Broadcaster interface {
	BroadcastOperation(snapshot domain.OperationSnapshot)
}

// Tracker serializes collection runs and keeps a bounded history of
// them. The portal browser is a singleton resource, so at most one run
// may be active; starting a second one is rejected, never queued.
type Tracker struct {
	mu          sync.Mutex
	logger      *slog.Logger
	broadcaster Broadcaster
	limit       int

	current   *Run
	cancelRun context.CancelFunc
	runs      map[string]*Run
	order     []string
}

// NewTracker creates a tracker publishing through broadcaster.
func NewTracker(broadcaster Broadcaster, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logger:      logger,
		broadcaster: broadcaster,
		limit:       defaultHistoryLimit,
		runs:        make(map[string]*Run),
	}
}

// Begin registers a new pending run, rejecting it when another run is
// still active. cancel is invoked if the run is cancelled through the
// tracker.
func (t *Tracker) Begin(from, to time.Time, cancel context.CancelFunc) (*Run, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		if snap := t.current.Snapshot(); !snap.IsTerminal() {
			return nil, apperrors.ErrOperationActive
		}
	}

	run := NewRun(uuid.New().String(), from, to, DefaultSteps())
	t.current = run
	t.cancelRun = cancel
	t.runs[run.ID()] = run
	t.order = append(t.order, run.ID())
	t.trimLocked()

	t.logger.Info("collection run registered",
		slog.String("operation_id", run.ID()),
		slog.String("from", FormatDate(from)),
		slog.String("to", FormatDate(to)))
	return run, nil
}

// Publish forwards a snapshot to the broadcaster.
func (t *Tracker) Publish(snapshot domain.OperationSnapshot) {
	t.logger.Debug("run transition",
		slog.String("operation_id", snapshot.ID),
		slog.String("status", string(snapshot.Status)))
	if t.broadcaster != nil {
		t.broadcaster.BroadcastOperation(snapshot)
	}
}

// Get returns a snapshot of the run with the given id.
func (t *Tracker) Get(id string) (domain.OperationSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, ok := t.runs[id]
	if !ok {
		return domain.OperationSnapshot{}, false
	}
	return run.Snapshot(), true
}

// List returns snapshots of all retained runs, newest first.
func (t *Tracker) List() []domain.OperationSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.OperationSnapshot, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		out = append(out, t.runs[t.order[i]].Snapshot())
	}
	return out
}

// Active returns the currently running operation, if any.
func (t *Tracker) Active() (domain.OperationSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return domain.OperationSnapshot{}, false
	}
	snap := t.current.Snapshot()
	if snap.IsTerminal() {
		return domain.OperationSnapshot{}, false
	}
	return snap, true
}

// Cancel requests cancellation of the active run. It only signals the
// run's context; the pipeline marks the run cancelled when it unwinds.
func (t *Tracker) Cancel(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || t.current.ID() != id {
		return false
	}
	if snap := t.current.Snapshot(); snap.IsTerminal() {
		return false
	}
	if t.cancelRun != nil {
		t.cancelRun()
	}
	t.logger.Info("collection run cancellation requested",
		slog.String("operation_id", id))
	return true
}

// trimLocked drops the oldest terminal runs beyond the history limit.
// The active run is never dropped.
func (t *Tracker) trimLocked() {
	for len(t.order) > t.limit {
		oldest := t.order[0]
		if t.current != nil && t.current.ID() == oldest {
			return
		}
		delete(t.runs, oldest)
		t.order = t.order[1:]
	}
}
