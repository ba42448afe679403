package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bondpulse/internal/collector/investing"
	"bondpulse/internal/collector/kofia"
	"bondpulse/internal/config"
	"bondpulse/internal/dataprocessing"
	"bondpulse/internal/infrastructure"
	"bondpulse/internal/operations"
	"bondpulse/internal/store"
	"bondpulse/pkg/contracts/domain"
)

// Collector pulls a raw wide table for one date window. Both source
// collectors satisfy it; tests substitute scripted ones.
type Collector interface {
	Collect(ctx context.Context, start, end time.Time) (*domain.YieldTable, error)
}

// CollectorSet bundles the per-source collectors for one run.
type CollectorSet struct {
	Investing Collector
	Kofia     Collector
}

// CollectorBuilder constructs fresh collectors for a run, so every run
// gets its own resolver cache and browser state.
type CollectorBuilder func(cfg config.CollectionConfig) CollectorSet

// CollectRequest describes one collection run trigger. A zero From
// keeps the incremental per-source window; a zero To defaults to
// yesterday. An empty Sources selects every source.
type CollectRequest struct {
	From     time.Time
	To       time.Time
	Sources  []string
	Headless *bool
}

// CollectionService orchestrates collection runs: per source it loads
// the stored dataset, computes the window, collects, standardizes
// (portal only), calendar-fills and merge-saves. Runs are serialized
// through the tracker because the portal browser is a singleton
// resource.
type CollectionService struct {
	cfg          config.CollectionConfig
	paths        *config.Paths
	tracker      *operations.Tracker
	store        *store.Store
	standardizer *dataprocessing.Standardizer
	build        CollectorBuilder
	metrics      *infrastructure.CollectionMetrics
	logger       *slog.Logger
}

// NewCollectionService creates the run orchestrator.
func NewCollectionService(cfg *config.Config, paths *config.Paths, tracker *operations.Tracker, metrics *infrastructure.CollectionMetrics, logger *slog.Logger) *CollectionService {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &CollectionService{
		cfg:          cfg.Collection,
		paths:        paths,
		tracker:      tracker,
		store:        store.NewStore(logger),
		standardizer: dataprocessing.NewStandardizer(logger),
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "collection_service")),
	}
	svc.build = func(runCfg config.CollectionConfig) CollectorSet {
		return CollectorSet{
			Investing: investing.NewCollector(runCfg, paths, logger, metrics),
			Kofia:     kofia.NewCollector(runCfg, paths, logger, metrics),
		}
	}
	return svc
}

// Start registers a run and executes it in the background, returning
// the pending snapshot. A second trigger while a run is active is
// rejected with a conflict error.
func (cs *CollectionService) Start(ctx context.Context, req CollectRequest) (domain.OperationSnapshot, error) {
	req, err := cs.normalize(req)
	if err != nil {
		return domain.OperationSnapshot{}, err
	}

	// The run outlives the triggering request.
	runCtx, cancel := context.WithTimeout(context.Background(), config.DefaultOperationTimeout)
	run, err := cs.tracker.Begin(req.From, req.To, cancel)
	if err != nil {
		cancel()
		return domain.OperationSnapshot{}, err
	}

	go cs.execute(runCtx, cancel, run, req)
	return run.Snapshot(), nil
}

// RunOnce executes a collection run synchronously and returns its
// terminal snapshot. The CLI entry point.
func (cs *CollectionService) RunOnce(ctx context.Context, req CollectRequest) (domain.OperationSnapshot, error) {
	req, err := cs.normalize(req)
	if err != nil {
		return domain.OperationSnapshot{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	run, err := cs.tracker.Begin(req.From, req.To, cancel)
	if err != nil {
		cancel()
		return domain.OperationSnapshot{}, err
	}

	cs.execute(runCtx, cancel, run, req)
	return run.Snapshot(), nil
}

// Status returns the snapshot of one run.
func (cs *CollectionService) Status(id string) (domain.OperationSnapshot, bool) {
	return cs.tracker.Get(id)
}

// List returns snapshots of all retained runs, newest first.
func (cs *CollectionService) List() []domain.OperationSnapshot {
	return cs.tracker.List()
}

// Active returns the running operation, if any.
func (cs *CollectionService) Active() (domain.OperationSnapshot, bool) {
	return cs.tracker.Active()
}

// Cancel requests cancellation of the active run.
func (cs *CollectionService) Cancel(id string) bool {
	return cs.tracker.Cancel(id)
}

func (cs *CollectionService) normalize(req CollectRequest) (CollectRequest, error) {
	if req.To.IsZero() {
		req.To = time.Now().AddDate(0, 0, -1)
	}
	req.To = domain.Day(req.To)
	if !req.From.IsZero() {
		req.From = domain.Day(req.From)
		if req.From.After(req.To) {
			return req, fmt.Errorf("%w: from %s is after to %s", ErrInvalidDateRange,
				req.From.Format(config.DateFormatISO), req.To.Format(config.DateFormatISO))
		}
	}
	if len(req.Sources) == 0 {
		req.Sources = []string{domain.StepIDInvesting, domain.StepIDKofia}
	}
	for _, source := range req.Sources {
		if source != domain.StepIDInvesting && source != domain.StepIDKofia {
			return req, fmt.Errorf("%w: %s", ErrUnknownSource, source)
		}
	}
	return req, nil
}

func (cs *CollectionService) execute(ctx context.Context, cancel context.CancelFunc, run *operations.Run, req CollectRequest) {
	defer cancel()
	started := time.Now()

	cs.tracker.Publish(run.Start())
	infrastructure.RecordActiveOperationChange(ctx, cs.metrics, 1, "collection")
	defer infrastructure.RecordActiveOperationChange(ctx, cs.metrics, -1, "collection")

	runCfg := cs.cfg
	if req.Headless != nil {
		runCfg.Headless = *req.Headless
	}
	set := cs.build(runCfg)

	sources := []struct {
		id          string
		collector   Collector
		csvPath     string
		standardize bool
	}{
		{domain.StepIDInvesting, set.Investing, cs.paths.TreasuryCSV, false},
		{domain.StepIDKofia, set.Kofia, cs.paths.BondSummaryCSV, true},
	}

	selected := make(map[string]bool, len(req.Sources))
	for _, source := range req.Sources {
		selected[source] = true
	}

	var completed, failed int
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		if !selected[src.id] {
			cs.tracker.Publish(run.SkipStep(src.id, "source not selected"))
			continue
		}
		if cs.collectSource(ctx, run, src.id, src.collector, src.csvPath, src.standardize, req) {
			completed++
		} else {
			failed++
		}
	}

	duration := time.Since(started)
	switch {
	case ctx.Err() != nil:
		cs.tracker.Publish(run.Cancel())
		infrastructure.RecordOperationCancellation(ctx, cs.metrics, run.ID(), "collection", ctx.Err().Error())
		cs.logger.Warn("collection run cancelled",
			slog.String("operation_id", run.ID()),
			slog.Duration("duration", duration))
	case completed == 0 && failed > 0:
		err := errors.New("every selected source failed")
		cs.tracker.Publish(run.Fail(err))
		infrastructure.RecordOperationMetrics(ctx, cs.metrics, run.ID(), "collection", duration, false, err)
		cs.logger.Error("collection run failed",
			slog.String("operation_id", run.ID()),
			slog.Duration("duration", duration))
	default:
		cs.tracker.Publish(run.Complete())
		infrastructure.RecordOperationMetrics(ctx, cs.metrics, run.ID(), "collection", duration, true, nil)
		cs.logger.Info("collection run completed",
			slog.String("operation_id", run.ID()),
			slog.Int("sources_collected", completed),
			slog.Int("sources_failed", failed),
			slog.Duration("duration", duration))
	}
}

// collectSource runs the pipeline for one source and reports whether
// the step ended in a non-failed state.
func (cs *CollectionService) collectSource(ctx context.Context, run *operations.Run, stepID string, collector Collector, csvPath string, standardize bool, req CollectRequest) bool {
	cs.tracker.Publish(run.StartStep(stepID))
	started := time.Now()

	fail := func(err error) bool {
		cs.tracker.Publish(run.FailStep(stepID, err))
		infrastructure.RecordOperationStepMetrics(ctx, cs.metrics, run.ID(), stepID, "collect", time.Since(started), false)
		cs.logger.ErrorContext(ctx, "source collection failed",
			slog.String("step", stepID),
			slog.String("error", err.Error()))
		return false
	}

	existing := cs.store.Load(ctx, csvPath)
	start, end, upToDate := store.Window(existing, req.To)
	if !req.From.IsZero() {
		start = req.From
		upToDate = start.After(end)
	}
	if upToDate {
		cs.tracker.Publish(run.SkipStep(stepID, "dataset already covers "+end.Format(config.DateFormatISO)))
		infrastructure.RecordOperationStepMetrics(ctx, cs.metrics, run.ID(), stepID, "collect", time.Since(started), true)
		return true
	}

	cs.logger.InfoContext(ctx, "collecting source",
		slog.String("step", stepID),
		slog.Time("start", start),
		slog.Time("end", end))

	fresh, err := collector.Collect(ctx, start, end)
	if err != nil {
		return fail(err)
	}
	if fresh == nil || fresh.IsEmpty() {
		return fail(errors.New("collector produced no rows"))
	}

	if standardize {
		fresh, err = cs.standardizer.Standardize(ctx, fresh)
		if err != nil {
			return fail(err)
		}
	}

	merged, err := cs.store.MergeSave(ctx, existing, dataprocessing.FillCalendar(fresh), csvPath)
	if err != nil {
		return fail(err)
	}

	cs.tracker.Publish(run.CompleteStep(stepID, merged.Len(), merged.Width()))
	infrastructure.RecordOperationStepMetrics(ctx, cs.metrics, run.ID(), stepID, "collect", time.Since(started), true)
	cs.logger.InfoContext(ctx, "source collected",
		slog.String("step", stepID),
		slog.Int("rows", merged.Len()),
		slog.Int("columns", merged.Width()),
		slog.Duration("duration", time.Since(started)))
	return true
}
