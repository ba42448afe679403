package kofia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bondpulse/internal/catalog"
	"bondpulse/internal/config"
	"bondpulse/internal/dataprocessing"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/exporter"
	"bondpulse/internal/files"
	"bondpulse/internal/infrastructure"
	"bondpulse/pkg/contracts/domain"
)

// Collector pulls the full benchmark yield matrix from the KOFIA
// portal. The portal caps how many instruments one export may carry,
// so the catalog splits them into fixed batches; each batch gets a
// fresh browser so a wedged UI cannot poison the batches after it.
type Collector struct {
	cfg        config.CollectionConfig
	paths      *config.Paths
	manager    *files.Manager
	logger     *slog.Logger
	metrics    *infrastructure.CollectionMetrics
	newBrowser BrowserFactory
}

// NewCollector creates a portal collector using real Chrome sessions.
func NewCollector(cfg config.CollectionConfig, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.CollectionMetrics) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		cfg:        cfg,
		paths:      paths,
		manager:    files.NewManager(paths),
		logger:     logger,
		metrics:    metrics,
		newBrowser: NewChromeBrowser,
	}
}

// Collect exports every batch over [start, end] and joins the results
// on date. A failed batch is logged and skipped; the joined table is
// nil only when no batch produced data. Columns keep the portal's raw
// header labels, standardization happens downstream.
func (c *Collector) Collect(ctx context.Context, start, end time.Time) (*domain.YieldTable, error) {
	batches := catalog.PortalBatches()
	datedDir := c.paths.GetDatedDownloadDir(end)
	if err := os.MkdirAll(datedDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	c.logger.InfoContext(ctx, "starting portal collection",
		slog.Int("batches", len(batches)),
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Bool("headless", c.cfg.Headless))

	var tables []*domain.YieldTable
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		began := time.Now()
		table, err := c.collectBatch(ctx, batch, start, end, datedDir)
		infrastructure.RecordPortalBatch(ctx, c.metrics, batch.Name, time.Since(began), err == nil)
		if err != nil {
			var timeout *apperrors.AutomationTimeoutError
			if errors.As(err, &timeout) {
				infrastructure.RecordAutomationTimeout(ctx, c.metrics, timeout.State)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.WarnContext(ctx, "portal batch failed, skipping",
				slog.String("batch", batch.Name),
				slog.String("error", err.Error()))
			continue
		}
		c.logger.InfoContext(ctx, "portal batch collected",
			slog.String("batch", batch.Name),
			slog.Int("rows", table.Len()),
			slog.Int("columns", table.Width()))
		tables = append(tables, table)
	}

	joined := dataprocessing.JoinOnDate(tables)
	if joined == nil {
		c.logger.WarnContext(ctx, "no portal batch produced data")
		return nil, nil
	}
	return joined, nil
}

// collectBatch runs one batch through a fresh browser session, stages
// the download under its batch name and parses it. The raw export is
// re-saved next to it as a real workbook and then removed.
func (c *Collector) collectBatch(ctx context.Context, batch domain.PortalBatch, start, end time.Time, datedDir string) (*domain.YieldTable, error) {
	browser, cleanup, err := c.newBrowser(ctx, c.cfg.Headless, datedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer cleanup()

	session := NewSession(browser, c.cfg, datedDir, c.logger)
	downloaded, err := session.Run(ctx, batch, start, end)
	if err != nil {
		return nil, err
	}

	batchPath := c.paths.GetBatchExportPath(batch.Name)
	if err := c.manager.MoveFile(downloaded, batchPath); err != nil {
		return nil, fmt.Errorf("failed to stage batch export: %w", err)
	}

	table, err := ParseExport(batchPath, c.logger)
	if err != nil {
		return nil, err
	}

	if !table.IsEmpty() {
		normalized := filepath.Join(datedDir, fmt.Sprintf("bond_summary_%s.xlsx", batch.Name))
		if err := exporter.WriteTableWorkbook(normalized, "BondSummary", table); err != nil {
			c.logger.WarnContext(ctx, "failed to save normalized batch workbook",
				slog.String("batch", batch.Name),
				slog.String("error", err.Error()))
		}
	}
	if err := c.manager.DeleteFile(batchPath); err != nil {
		c.logger.WarnContext(ctx, "failed to remove staged batch export",
			slog.String("path", batchPath),
			slog.String("error", err.Error()))
	}
	return table, nil
}
