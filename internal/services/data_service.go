package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bondpulse/internal/catalog"
	"bondpulse/internal/config"
	"bondpulse/internal/dataprocessing"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/exporter"
	"bondpulse/internal/files"
	"bondpulse/internal/store"
	"bondpulse/pkg/contracts/domain"
)

// DataService serves read-side views over the stored datasets: the
// merged wide table, change summaries and curve snapshots. Views are
// rebuilt from the per-source CSVs on every call; the datasets are a
// few thousand rows, so the rebuild is cheaper than keeping a cache
// coherent with concurrent collection runs.
type DataService struct {
	paths      *config.Paths
	store      *store.Store
	summarizer *dataprocessing.Summarizer
	discovery  *files.Discovery
	reports    *exporter.ReportExporter
	logger     *slog.Logger
}

// NewDataService creates a data service over the stored datasets.
func NewDataService(paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		paths:      paths,
		store:      store.NewStore(logger),
		summarizer: dataprocessing.NewSummarizer(logger),
		discovery:  files.NewDiscovery(paths.DataDir),
		reports:    exporter.NewReportExporter(paths),
		logger:     logger.With(slog.String("component", "data_service")),
	}
}

// MergedTable loads the treasury and portal datasets and outer-joins
// them into one calendar-filled wide table.
func (ds *DataService) MergedTable(ctx context.Context) (*domain.YieldTable, error) {
	treasury := ds.store.Load(ctx, ds.paths.TreasuryCSV)
	portal := ds.store.Load(ctx, ds.paths.BondSummaryCSV)

	merged := dataprocessing.Merge(treasury, portal)
	if merged == nil || merged.IsEmpty() {
		return nil, apperrors.ErrNoDataset
	}

	ds.logger.DebugContext(ctx, "merged stored datasets",
		slog.Int("rows", merged.Len()),
		slog.Int("columns", merged.Width()))
	return merged, nil
}

// Yields returns the merged table clipped to [from, to]. A zero bound
// leaves that side open; a window with no rows is returned empty, not
// as an error.
func (ds *DataService) Yields(ctx context.Context, from, to time.Time) (*domain.YieldTable, error) {
	merged, err := ds.MergedTable(ctx)
	if err != nil {
		return nil, err
	}
	return clipDates(merged, from, to), nil
}

// Summary builds the change summary for refDate, defaulting to the
// latest stored date.
func (ds *DataService) Summary(ctx context.Context, refDate time.Time) (*domain.ChangeSummary, error) {
	merged, err := ds.MergedTable(ctx)
	if err != nil {
		return nil, err
	}
	if refDate.IsZero() {
		refDate = merged.MaxDate()
	}
	return ds.summarizer.BuildSummary(ctx, merged, refDate)
}

// Curve builds one country's curve snapshot for refDate, defaulting to
// the latest stored date. The country code is case-insensitive.
func (ds *DataService) Curve(ctx context.Context, country string, refDate time.Time) (*domain.CurveSnapshot, error) {
	merged, err := ds.MergedTable(ctx)
	if err != nil {
		return nil, err
	}
	if refDate.IsZero() {
		refDate = merged.MaxDate()
	}
	return ds.summarizer.BuildCurve(ctx, merged, strings.ToUpper(country), refDate)
}

// Curves builds snapshots for every catalog country that has columns in
// the merged table. Countries without data are left out, not errors.
func (ds *DataService) Curves(ctx context.Context, refDate time.Time) ([]*domain.CurveSnapshot, error) {
	merged, err := ds.MergedTable(ctx)
	if err != nil {
		return nil, err
	}
	if refDate.IsZero() {
		refDate = merged.MaxDate()
	}
	return ds.buildCurves(ctx, merged, refDate), nil
}

func (ds *DataService) buildCurves(ctx context.Context, merged *domain.YieldTable, refDate time.Time) []*domain.CurveSnapshot {
	var curves []*domain.CurveSnapshot
	for _, country := range catalog.SummaryCountries() {
		curve, err := ds.summarizer.BuildCurve(ctx, merged, country, refDate)
		if err != nil {
			continue
		}
		curves = append(curves, curve)
	}
	return curves
}

// ExportWorkbook writes the merged dataset, the change summary and the
// curve snapshots into the yields workbook, plus a dated copy for the
// archive, and returns the workbook path.
func (ds *DataService) ExportWorkbook(ctx context.Context) (string, error) {
	merged, err := ds.MergedTable(ctx)
	if err != nil {
		return "", err
	}
	refDate := merged.MaxDate()

	summary, err := ds.summarizer.BuildSummary(ctx, merged, refDate)
	if err != nil {
		return "", err
	}
	curves := ds.buildCurves(ctx, merged, refDate)

	path := ds.paths.YieldWorkbook
	if err := exporter.WriteWorkbook(path, merged, summary, curves); err != nil {
		return "", fmt.Errorf("failed to write yields workbook: %w", err)
	}

	dated := ds.paths.GetDatedWorkbookPath(refDate)
	if err := exporter.WriteWorkbook(dated, merged, summary, curves); err != nil {
		ds.logger.WarnContext(ctx, "failed to write dated workbook copy",
			slog.String("path", dated),
			slog.String("error", err.Error()))
	}

	ds.logger.InfoContext(ctx, "exported yields workbook",
		slog.String("path", path),
		slog.Time("reference_date", refDate),
		slog.Int("rows", merged.Len()),
		slog.Int("curves", len(curves)))
	return path, nil
}

// ExportReports writes the change summary and curve CSV reports for
// refDate (zero for the latest stored date) and returns their paths.
func (ds *DataService) ExportReports(ctx context.Context, refDate time.Time) ([]string, error) {
	merged, err := ds.MergedTable(ctx)
	if err != nil {
		return nil, err
	}
	if refDate.IsZero() {
		refDate = merged.MaxDate()
	}

	summary, err := ds.summarizer.BuildSummary(ctx, merged, refDate)
	if err != nil {
		return nil, err
	}

	summaryPath := ds.paths.ChangeSummaryCSV
	if err := ds.reports.ExportChangeSummary(summary, summaryPath); err != nil {
		return nil, err
	}
	written := []string{summaryPath}

	curves := ds.buildCurves(ctx, merged, refDate)
	if len(curves) > 0 {
		curvesPath := ds.paths.GetReportPath("curves.csv")
		if err := ds.reports.ExportCurves(curves, curvesPath); err != nil {
			return nil, err
		}
		written = append(written, curvesPath)
	}

	ds.logger.InfoContext(ctx, "exported reports",
		slog.Time("reference_date", refDate),
		slog.Int("files", len(written)))
	return written, nil
}

// LatestWorkbook returns the newest dated workbook in the reports
// directory, if any exist.
func (ds *DataService) LatestWorkbook() (files.FileInfo, bool) {
	dated, err := ds.discovery.FindDatedWorkbooks(ds.paths.ReportsDir)
	if err != nil || len(dated) == 0 {
		return files.FileInfo{}, false
	}
	all := make([]files.FileInfo, 0, len(dated))
	for _, info := range dated {
		all = append(all, info)
	}
	return files.GetLatestFile(all)
}

// clipDates copies the rows of t that fall inside [from, to]. Zero
// bounds are open.
func clipDates(t *domain.YieldTable, from, to time.Time) *domain.YieldTable {
	if from.IsZero() && to.IsZero() {
		return t
	}
	out := domain.NewYieldTable()
	for _, code := range t.Columns() {
		out.AddColumn(code)
	}
	for i, d := range t.Dates() {
		if !from.IsZero() && d.Before(domain.Day(from)) {
			continue
		}
		if !to.IsZero() && d.After(domain.Day(to)) {
			continue
		}
		for _, code := range t.Columns() {
			out.SetCell(d, code, t.ValueAt(i, code))
		}
	}
	return out
}
