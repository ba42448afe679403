package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/internal/config"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/operations"
	"bondpulse/internal/shared/testutil"
	"bondpulse/internal/store"
	"bondpulse/pkg/contracts/domain"
)

var errSourceDown = errors.New("source offline")

type fakeCollector struct {
	mu      sync.Mutex
	windows [][2]time.Time
	table   *domain.YieldTable
	err     error
	block   chan struct{} // when set, Collect waits for it or the context
}

func (f *fakeCollector) Collect(ctx context.Context, start, end time.Time) (*domain.YieldTable, error) {
	f.mu.Lock()
	f.windows = append(f.windows, [2]time.Time{start, end})
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func (f *fakeCollector) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func (f *fakeCollector) lastWindow() (time.Time, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := f.windows[len(f.windows)-1]
	return last[0], last[1]
}

func investingTable() *domain.YieldTable {
	t := domain.NewYieldTable()
	t.SetCell(domain.NewDay(2026, time.February, 17), "US_10Y", 4.55)
	t.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.60)
	return t
}

func kofiaRawTable() *domain.YieldTable {
	t := domain.NewYieldTable()
	t.SetCell(domain.NewDay(2026, time.February, 17), "국고채권(10년)", 2.80)
	t.SetCell(domain.NewDay(2026, time.February, 18), "국고채권(10년)", 2.85)
	return t
}

func newTestCollectionService(t *testing.T, inv, kof Collector) (*CollectionService, *config.Paths) {
	t.Helper()
	paths := newTestPaths(t)
	logger, _ := testutil.NewTestLogger(t)
	cfg := &config.Config{Collection: config.CollectionConfig{Headless: true, LookbackYears: 5}}
	tracker := operations.NewTracker(nil, logger)
	svc := NewCollectionService(cfg, paths, tracker, nil, logger)
	svc.build = func(config.CollectionConfig) CollectorSet {
		return CollectorSet{Investing: inv, Kofia: kof}
	}
	return svc, paths
}

func stepByID(t *testing.T, snap domain.OperationSnapshot, id string) domain.StepSnapshot {
	t.Helper()
	for _, s := range snap.Steps {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("step %s not in snapshot", id)
	return domain.StepSnapshot{}
}

func TestRunOnceCollectsBothSources(t *testing.T) {
	inv := &fakeCollector{table: investingTable()}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, paths := newTestCollectionService(t, inv, kof)

	to := domain.NewDay(2026, time.February, 18)
	snap, err := svc.RunOnce(context.Background(), CollectRequest{To: to})
	require.NoError(t, err)

	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
	assert.Equal(t, domain.StepStatusCompleted, stepByID(t, snap, domain.StepIDInvesting).Status)
	assert.Equal(t, domain.StepStatusCompleted, stepByID(t, snap, domain.StepIDKofia).Status)

	// Empty store: the window reaches five years back from the end date.
	start, end := inv.lastWindow()
	assert.Equal(t, to, end)
	assert.Equal(t, to.AddDate(-5, 0, 0), start)

	ctx := context.Background()
	logger, _ := testutil.NewTestLogger(t)
	st := store.NewStore(logger)

	treasury := st.Load(ctx, paths.TreasuryCSV)
	require.NotNil(t, treasury)
	assert.Equal(t, []string{"US_10Y"}, treasury.Columns())

	portal := st.Load(ctx, paths.BondSummaryCSV)
	require.NotNil(t, portal)
	assert.Equal(t, []string{"KTB_10Y"}, portal.Columns(),
		"portal headers should be standardized before the store sees them")
	assert.InDelta(t, 2.85, portal.Value(domain.NewDay(2026, time.February, 18), "KTB_10Y"), 1e-9)
}

func TestRunOnceContinuesWhenOneSourceFails(t *testing.T) {
	inv := &fakeCollector{err: apperrors.NewTransientFetchError("https://www.investing.com/instruments/HistoricalDataAjax", 0, errSourceDown)}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, paths := newTestCollectionService(t, inv, kof)

	snap, err := svc.RunOnce(context.Background(), CollectRequest{To: domain.NewDay(2026, time.February, 18)})
	require.NoError(t, err)

	assert.Equal(t, domain.OperationStatusCompleted, snap.Status,
		"one live source is still a usable run")
	invStep := stepByID(t, snap, domain.StepIDInvesting)
	assert.Equal(t, domain.StepStatusFailed, invStep.Status)
	assert.NotEmpty(t, invStep.Error)
	assert.Equal(t, domain.StepStatusCompleted, stepByID(t, snap, domain.StepIDKofia).Status)

	assert.NoFileExists(t, paths.TreasuryCSV, "a failed source must not touch its stored file")
	assert.FileExists(t, paths.BondSummaryCSV)
}

func TestRunOnceFailsWhenAllSourcesFail(t *testing.T) {
	inv := &fakeCollector{err: errSourceDown}
	kof := &fakeCollector{} // nil table: collected nothing
	svc, _ := newTestCollectionService(t, inv, kof)

	snap, err := svc.RunOnce(context.Background(), CollectRequest{To: domain.NewDay(2026, time.February, 18)})
	require.NoError(t, err)

	assert.Equal(t, domain.OperationStatusFailed, snap.Status)
	assert.Contains(t, snap.Error, "every selected source failed")
	assert.Equal(t, domain.StepStatusFailed, stepByID(t, snap, domain.StepIDKofia).Status)
}

func TestRunOnceSkipsUnselectedSource(t *testing.T) {
	inv := &fakeCollector{table: investingTable()}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, _ := newTestCollectionService(t, inv, kof)

	snap, err := svc.RunOnce(context.Background(), CollectRequest{
		To:      domain.NewDay(2026, time.February, 18),
		Sources: []string{domain.StepIDInvesting},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
	kofStep := stepByID(t, snap, domain.StepIDKofia)
	assert.Equal(t, domain.StepStatusSkipped, kofStep.Status)
	assert.Equal(t, "source not selected", kofStep.Error)
	assert.Zero(t, kof.calls())
}

func TestRunOnceSkipsUpToDateSource(t *testing.T) {
	inv := &fakeCollector{table: investingTable()}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, paths := newTestCollectionService(t, inv, kof)

	to := domain.NewDay(2026, time.February, 18)
	ctx := context.Background()
	logger, _ := testutil.NewTestLogger(t)
	require.NoError(t, store.NewStore(logger).Save(ctx, investingTable(), paths.TreasuryCSV))

	snap, err := svc.RunOnce(ctx, CollectRequest{To: to})
	require.NoError(t, err)

	invStep := stepByID(t, snap, domain.StepIDInvesting)
	assert.Equal(t, domain.StepStatusSkipped, invStep.Status)
	assert.Contains(t, invStep.Error, "already covers 2026-02-18")
	assert.Zero(t, inv.calls())
	assert.Equal(t, 1, kof.calls())
	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
}

func TestRunOnceExplicitFromOverridesWindow(t *testing.T) {
	inv := &fakeCollector{table: investingTable()}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, _ := newTestCollectionService(t, inv, kof)

	from := domain.NewDay(2026, time.February, 1)
	to := domain.NewDay(2026, time.February, 18)
	_, err := svc.RunOnce(context.Background(), CollectRequest{From: from, To: to})
	require.NoError(t, err)

	start, end := inv.lastWindow()
	assert.Equal(t, from, start)
	assert.Equal(t, to, end)
}

func TestStartRejectsSecondRun(t *testing.T) {
	block := make(chan struct{})
	inv := &fakeCollector{table: investingTable(), block: block}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, _ := newTestCollectionService(t, inv, kof)

	first, err := svc.Start(context.Background(), CollectRequest{To: domain.NewDay(2026, time.February, 18)})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), CollectRequest{To: domain.NewDay(2026, time.February, 18)})
	assert.ErrorIs(t, err, apperrors.ErrOperationActive)

	close(block)
	require.Eventually(t, func() bool {
		snap, ok := svc.Status(first.ID)
		return ok && snap.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCancelActiveRun(t *testing.T) {
	inv := &fakeCollector{table: investingTable(), block: make(chan struct{})}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, _ := newTestCollectionService(t, inv, kof)

	snap, err := svc.Start(context.Background(), CollectRequest{To: domain.NewDay(2026, time.February, 18)})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := svc.Active()
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.True(t, svc.Cancel(snap.ID))
	require.Eventually(t, func() bool {
		got, ok := svc.Status(snap.ID)
		return ok && got.Status == domain.OperationStatusCancelled
	}, 5*time.Second, 10*time.Millisecond)

	assert.False(t, svc.Cancel(snap.ID), "a terminal run cannot be cancelled again")
}

func TestStartValidatesRequest(t *testing.T) {
	svc, _ := newTestCollectionService(t, &fakeCollector{}, &fakeCollector{})

	tests := []struct {
		name    string
		req     CollectRequest
		wantErr error
	}{
		{
			name:    "unknown source",
			req:     CollectRequest{Sources: []string{"bloomberg"}},
			wantErr: ErrUnknownSource,
		},
		{
			name: "from after to",
			req: CollectRequest{
				From: domain.NewDay(2026, time.March, 1),
				To:   domain.NewDay(2026, time.February, 1),
			},
			wantErr: ErrInvalidDateRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, svc.List(), "an invalid request must not register a run")
		})
	}
}

func TestHeadlessOverrideReachesCollectors(t *testing.T) {
	inv := &fakeCollector{table: investingTable()}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, _ := newTestCollectionService(t, inv, kof)

	var captured config.CollectionConfig
	base := svc.build
	svc.build = func(cfg config.CollectionConfig) CollectorSet {
		captured = cfg
		return base(cfg)
	}

	visible := false
	_, err := svc.RunOnce(context.Background(), CollectRequest{
		To:       domain.NewDay(2026, time.February, 18),
		Headless: &visible,
	})
	require.NoError(t, err)
	assert.False(t, captured.Headless)
}

func TestListNewestFirst(t *testing.T) {
	inv := &fakeCollector{table: investingTable()}
	kof := &fakeCollector{table: kofiaRawTable()}
	svc, _ := newTestCollectionService(t, inv, kof)

	first, err := svc.RunOnce(context.Background(), CollectRequest{To: domain.NewDay(2026, time.February, 17)})
	require.NoError(t, err)
	second, err := svc.RunOnce(context.Background(), CollectRequest{To: domain.NewDay(2026, time.February, 18)})
	require.NoError(t, err)

	runs := svc.List()
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}
