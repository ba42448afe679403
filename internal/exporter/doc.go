// Package exporter writes the report artifacts derived from a
// collected yield dataset.
//
// This package contains three main components:
//
// CSVWriter: core CSV writing with headers, append mode and a UTF-8
// BOM for Excel compatibility.
//
// ReportExporter: renders a change summary and yield-curve snapshots
// to report CSV files.
//
// Workbook functions: write the combined xlsx workbook (wide yield
// table, summary sheet, one curve sheet per country), re-save a parsed
// portal export as a real xlsx file, and read a wide table back from a
// workbook sheet.
//
// Example usage:
//
//	reports := exporter.NewReportExporter(paths)
//	err := reports.ExportChangeSummary(summary, "change_summary.csv")
//
//	err = exporter.WriteWorkbook(paths.YieldWorkbook, merged, summary, curves)
package exporter
