package investing

import (
	"context"
	"log/slog"
	"time"

	"bondpulse/internal/catalog"
	"bondpulse/internal/config"
	"bondpulse/internal/dataprocessing"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/infrastructure"
	"bondpulse/pkg/contracts/domain"
)

// Collector walks the remote country×tenor catalog sequentially and
// assembles one wide table of daily yields. One instrument failing
// never aborts the walk; its column is simply absent from the result.
type Collector struct {
	resolver     *Resolver
	history      *HistoryFetcher
	logger       *slog.Logger
	metrics      *infrastructure.CollectionMetrics
	resolveDelay time.Duration
	fetchDelay   time.Duration
}

// NewCollector wires a collector from configuration. paths may be nil
// when debug snapshots are disabled, metrics when telemetry is not
// initialized.
func NewCollector(cfg config.CollectionConfig, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.CollectionMetrics) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	client := NewClient(cfg, logger)
	return &Collector{
		resolver:     NewResolver(client, paths, cfg.DebugSnapshots, logger),
		history:      NewHistoryFetcher(client, logger),
		logger:       logger,
		metrics:      metrics,
		resolveDelay: cfg.ResolveDelay,
		fetchDelay:   cfg.FetchDelay,
	}
}

// Collect fetches daily yields for every catalog instrument over
// [start, end] and returns a calendar-filled wide table, or nil when
// no instrument produced data.
func (c *Collector) Collect(ctx context.Context, start, end time.Time) (*domain.YieldTable, error) {
	instruments := catalog.RemoteInstruments()
	c.logger.InfoContext(ctx, "collecting remote yield series",
		slog.Int("instruments", len(instruments)),
		slog.String("start", start.Format("2006-01-02")),
		slog.String("end", end.Format("2006-01-02")))

	series := make(map[string]domain.YieldSeries)
	order := make([]string, 0, len(instruments))

	for _, inst := range instruments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code := inst.Code()

		began := time.Now()
		s, err := c.collectOne(ctx, inst, start, end)
		infrastructure.RecordSeriesFetch(ctx, c.metrics, string(domain.SourceInvesting), code,
			int64(len(s)), time.Since(began), err)

		switch {
		case apperrors.IsNotFound(err):
			c.logger.WarnContext(ctx, "instrument has no page upstream, column omitted",
				slog.String("code", code), slog.String("slug", inst.Slug))
			continue
		case err != nil:
			c.logger.WarnContext(ctx, "failed to collect series, column omitted",
				slog.String("code", code), slog.String("error", err.Error()))
			continue
		case s.Empty():
			c.logger.WarnContext(ctx, "no observations in range, column omitted",
				slog.String("code", code))
			continue
		}

		series[code] = s
		order = append(order, code)
		c.logger.InfoContext(ctx, "collected series",
			slog.String("code", code), slog.Int("rows", len(s)))
	}

	if len(series) == 0 {
		c.logger.WarnContext(ctx, "no instrument produced data")
		return nil, nil
	}

	table := dataprocessing.FillCalendar(domain.NewYieldTableFromSeries(series, order))
	for _, code := range table.AllMissingColumns() {
		c.logger.WarnContext(ctx, "series unsupported by source, all values missing",
			slog.String("code", code))
	}
	return table, nil
}

// collectOne resolves one instrument and fetches its series, pausing
// between remote calls. Both upstream sources throttle clients that
// hammer them.
func (c *Collector) collectOne(ctx context.Context, inst domain.Instrument, start, end time.Time) (domain.YieldSeries, error) {
	id, err := c.resolver.Resolve(ctx, inst)
	if err != nil {
		return nil, err
	}
	if err := pause(ctx, c.resolveDelay); err != nil {
		return nil, err
	}
	s, err := c.history.Fetch(ctx, id, inst.Slug, start, end)
	if err != nil {
		return nil, err
	}
	if err := pause(ctx, c.fetchDelay); err != nil {
		return nil, err
	}
	return s, nil
}

// pause sleeps for d unless the context ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
