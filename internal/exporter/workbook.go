package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"bondpulse/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetYields  = "Yields"
	SheetSummary = "Summary"
)

const dateLayout = "2006-01-02"

// CurveSheetName returns the workbook sheet name for a country curve.
func CurveSheetName(country string) string {
	return "Curve " + country
}

// WriteWorkbook writes the combined report workbook: the merged wide
// table on the Yields sheet, the change summary on the Summary sheet
// and one curve sheet per country. Numeric cells are written as
// floats; missing values stay empty.
func WriteWorkbook(path string, merged *domain.YieldTable, summary *domain.ChangeSummary, curves []*domain.CurveSnapshot) error {
	if merged == nil || merged.IsEmpty() {
		return fmt.Errorf("no dataset to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetYields); err != nil {
		return fmt.Errorf("failed to name yields sheet: %w", err)
	}
	if err := writeTableSheet(f, SheetYields, merged); err != nil {
		return err
	}

	if summary != nil && len(summary.Rows) > 0 {
		if _, err := f.NewSheet(SheetSummary); err != nil {
			return fmt.Errorf("failed to create summary sheet: %w", err)
		}
		if err := writeSummarySheet(f, summary); err != nil {
			return err
		}
	}

	for _, c := range curves {
		if c == nil || len(c.Points) == 0 {
			continue
		}
		sheet := CurveSheetName(c.Country)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := writeCurveSheet(f, sheet, c); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("wrote report workbook",
		slog.String("path", path),
		slog.Int("rows", merged.Len()),
		slog.Int("curves", len(curves)))
	return nil
}

// WriteTableWorkbook writes a single wide table as a one-sheet xlsx
// file. Portal batch exports are re-saved through this after parsing,
// turning the HTML-in-disguise download into a real spreadsheet.
func WriteTableWorkbook(path, sheet string, t *domain.YieldTable) error {
	if t == nil || t.IsEmpty() {
		return fmt.Errorf("no rows to save")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeTableSheet(f, sheet, t); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ReadTable reads a wide table from a workbook sheet: first column
// Date with ISO dates, remaining columns floats, anything unparseable
// becomes missing.
func ReadTable(path, sheet string) (*domain.YieldTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("sheet %s has no data columns", sheet)
	}

	header := rows[0]
	if strings.TrimSpace(header[0]) != "Date" {
		return nil, fmt.Errorf("sheet %s: first column is %q, want Date", sheet, header[0])
	}
	columns := header[1:]

	t := domain.NewYieldTable()
	for _, code := range columns {
		t.AddColumn(code)
	}
	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %d: bad date %q", sheet, i+2, row[0])
		}
		for j, code := range columns {
			// GetRows trims trailing empty cells from each row
			v := domain.Missing()
			if j+1 < len(row) {
				if parsed, perr := strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64); perr == nil {
					v = parsed
				}
			}
			t.SetCell(date, code, v)
		}
	}
	return t, nil
}

// sheetWriter accumulates the first cell-write error so callers can
// lay out a sheet without checking every SetCellValue.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, value interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = fmt.Errorf("bad cell coordinates (%d,%d): %w", col, row, err)
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) setFloat(col, row int, v *float64) {
	if v == nil {
		return
	}
	w.set(col, row, *v)
}

func writeTableSheet(f *excelize.File, sheet string, t *domain.YieldTable) error {
	w := &sheetWriter{f: f, sheet: sheet}

	w.set(1, 1, "Date")
	columns := t.Columns()
	for j, code := range columns {
		w.set(j+2, 1, code)
	}

	for i, d := range t.Dates() {
		w.set(1, i+2, d.Format(dateLayout))
		for j, code := range columns {
			v := t.ValueAt(i, code)
			if domain.IsMissing(v) {
				continue
			}
			w.set(j+2, i+2, v)
		}
	}

	if w.err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", sheet, w.err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, summary *domain.ChangeSummary) error {
	w := &sheetWriter{f: f, sheet: SheetSummary}

	for j, h := range summary.CSVHeaders() {
		w.set(j+1, 1, h)
	}
	for i := range summary.Rows {
		r := &summary.Rows[i]
		row := i + 2
		w.set(1, row, r.Country)
		w.set(2, row, r.Tenor)
		w.set(3, row, r.Code)
		w.setFloat(4, row, r.Level)
		w.setFloat(5, row, r.Change1D)
		w.setFloat(6, row, r.Change1W)
		w.setFloat(7, row, r.ChangeMTD)
		w.setFloat(8, row, r.ChangeYTD)
		w.setFloat(9, row, r.ChangeYoY)
	}

	if w.err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", w.err)
	}
	return nil
}

func writeCurveSheet(f *excelize.File, sheet string, c *domain.CurveSnapshot) error {
	w := &sheetWriter{f: f, sheet: sheet}

	for j, h := range []string{"Tenor", "Current", "WeekAgo", "MonthAgo", "DeltaWeekBp", "DeltaMonthBp"} {
		w.set(j+1, 1, h)
	}
	for i, p := range c.Points {
		row := i + 2
		w.set(1, row, p.Tenor)
		w.setFloat(2, row, p.Current)
		w.setFloat(3, row, p.WeekAgo)
		w.setFloat(4, row, p.MonthAgo)
		w.setFloat(5, row, p.DeltaWeekBp)
		w.setFloat(6, row, p.DeltaMonthBp)
	}

	if w.err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", sheet, w.err)
	}
	return nil
}
