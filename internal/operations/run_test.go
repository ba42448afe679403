package operations

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/pkg/contracts/domain"
)

func newTestRun() *Run {
	return NewRun("run-1",
		time.Date(2026, time.February, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 18, 0, 0, 0, 0, time.UTC),
		DefaultSteps())
}

func TestNewRunStartsPending(t *testing.T) {
	run := newTestRun()
	snap := run.Snapshot()

	assert.Equal(t, "run-1", snap.ID)
	assert.Equal(t, domain.OperationStatusPending, snap.Status)
	assert.Equal(t, "2026-02-17", snap.FromDate)
	assert.Equal(t, "2026-02-18", snap.ToDate)
	assert.Nil(t, snap.StartedAt)
	assert.False(t, snap.IsTerminal())

	require.Len(t, snap.Steps, 2)
	assert.Equal(t, domain.StepIDInvesting, snap.Steps[0].ID)
	assert.Equal(t, domain.StepIDKofia, snap.Steps[1].ID)
	for _, s := range snap.Steps {
		assert.Equal(t, domain.StepStatusPending, s.Status)
	}
}

func TestRunLifecycle(t *testing.T) {
	run := newTestRun()

	snap := run.Start()
	assert.Equal(t, domain.OperationStatusRunning, snap.Status)
	require.NotNil(t, snap.StartedAt)

	snap = run.StartStep(domain.StepIDInvesting)
	assert.Equal(t, domain.StepStatusRunning, snap.Steps[0].Status)
	require.NotNil(t, snap.Steps[0].StartedAt)

	snap = run.CompleteStep(domain.StepIDInvesting, 120, 28)
	assert.Equal(t, domain.StepStatusCompleted, snap.Steps[0].Status)
	assert.Equal(t, 120, snap.Steps[0].Rows)
	assert.Equal(t, 28, snap.Steps[0].Columns)

	snap = run.FailStep(domain.StepIDKofia, fmt.Errorf("portal unreachable"))
	assert.Equal(t, domain.StepStatusFailed, snap.Steps[1].Status)
	assert.Equal(t, "portal unreachable", snap.Steps[1].Error)
	assert.Equal(t, domain.OperationStatusRunning, snap.Status,
		"a failed step should not fail the run by itself")

	snap = run.Complete()
	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
	require.NotNil(t, snap.CompletedAt)
	assert.True(t, snap.IsTerminal())
}

func TestRunFail(t *testing.T) {
	run := newTestRun()
	run.Start()

	snap := run.Fail(fmt.Errorf("store write failed"))
	assert.Equal(t, domain.OperationStatusFailed, snap.Status)
	assert.Equal(t, "store write failed", snap.Error)
	assert.True(t, snap.IsTerminal())
}

func TestRunCancel(t *testing.T) {
	run := newTestRun()
	run.Start()

	snap := run.Cancel()
	assert.Equal(t, domain.OperationStatusCancelled, snap.Status)
	assert.True(t, snap.IsTerminal())
}

func TestRunSkipStep(t *testing.T) {
	run := newTestRun()

	snap := run.SkipStep(domain.StepIDKofia, "source not requested")
	assert.Equal(t, domain.StepStatusSkipped, snap.Steps[1].Status)
	assert.Equal(t, "source not requested", snap.Steps[1].Error)
}

func TestRunIgnoresUnknownStep(t *testing.T) {
	run := newTestRun()

	snap := run.StartStep("nonexistent")
	for _, s := range snap.Steps {
		assert.Equal(t, domain.StepStatusPending, s.Status)
	}
}

func TestRunSnapshotIsIsolated(t *testing.T) {
	run := newTestRun()
	before := run.Snapshot()

	run.Start()
	run.CompleteStep(domain.StepIDInvesting, 10, 5)

	assert.Equal(t, domain.OperationStatusPending, before.Status)
	assert.Equal(t, domain.StepStatusPending, before.Steps[0].Status)
	assert.Zero(t, before.Steps[0].Rows)
}
