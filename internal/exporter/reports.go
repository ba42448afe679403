package exporter

import (
	"fmt"

	"bondpulse/internal/config"
	"bondpulse/pkg/contracts/domain"
)

// ReportExporter renders summary and curve artifacts to CSV files.
type ReportExporter struct {
	csvWriter *CSVWriter
}

// NewReportExporter creates a report exporter.
func NewReportExporter(paths *config.Paths) *ReportExporter {
	return &ReportExporter{
		csvWriter: NewCSVWriter(paths),
	}
}

// ExportChangeSummary writes a change summary to a report CSV. Rows
// keep the catalog order they were built in; missing deltas serialize
// as NaN.
func (e *ReportExporter) ExportChangeSummary(summary *domain.ChangeSummary, outputPath string) error {
	if summary == nil || len(summary.Rows) == 0 {
		return fmt.Errorf("no summary rows to export")
	}

	records := make([][]string, 0, len(summary.Rows))
	for i := range summary.Rows {
		records = append(records, summary.Rows[i].CSVRecord())
	}

	if err := e.csvWriter.WriteSimpleCSV(outputPath, summary.CSVHeaders(), records); err != nil {
		return fmt.Errorf("failed to write change summary: %w", err)
	}
	return nil
}

// ExportCurves writes curve snapshots to one report CSV, a block of
// rows per country in the order given.
func (e *ReportExporter) ExportCurves(curves []*domain.CurveSnapshot, outputPath string) error {
	var headers []string
	var records [][]string
	for _, c := range curves {
		if c == nil || len(c.Points) == 0 {
			continue
		}
		headers = c.CSVHeaders()
		records = append(records, c.CSVRecords()...)
	}
	if len(records) == 0 {
		return fmt.Errorf("no curve rows to export")
	}

	if err := e.csvWriter.WriteSimpleCSV(outputPath, headers, records); err != nil {
		return fmt.Errorf("failed to write curves: %w", err)
	}
	return nil
}
