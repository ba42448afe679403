package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bondpulse/pkg/contracts/domain"
)

// dateLayout is the ISO date format used in stored files.
const dateLayout = "2006-01-02"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store reads and writes wide-table CSV datasets.
type Store struct {
	logger *slog.Logger
	bom    bool
}

// NewStore creates a dataset store. Files are written with a UTF-8 BOM
// so Excel opens the Korean column history correctly.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger, bom: true}
}

// Load reads a stored dataset. A missing file is a normal cold start
// and returns nil without error; an unreadable or malformed file is
// logged and also returns nil, so the next run re-collects the full
// default window instead of failing.
func (s *Store) Load(ctx context.Context, path string) *domain.YieldTable {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.DebugContext(ctx, "no stored dataset yet",
				slog.String("path", path))
		} else {
			s.logger.WarnContext(ctx, "cannot open stored dataset",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		s.logger.WarnContext(ctx, "stored dataset is malformed, ignoring it",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil
	}
	if t.IsEmpty() {
		return nil
	}

	s.logger.InfoContext(ctx, "loaded stored dataset",
		slog.String("path", path),
		slog.Int("rows", t.Len()),
		slog.Int("columns", t.Width()),
		slog.Time("last_date", t.MaxDate()))
	return t
}

// LastDate returns the latest stored date, zero when there is no data.
func LastDate(t *domain.YieldTable) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.MaxDate()
}

// Window computes the incremental collection window ending at end.
// The start is the day after the last stored date; with no stored data
// it is five years before end (5x365 days when end is February 29,
// which has no date five calendar years earlier). upToDate reports
// that the store already covers end and no collection is needed.
func Window(existing *domain.YieldTable, end time.Time) (time.Time, time.Time, bool) {
	end = domain.Day(end)

	var start time.Time
	if last := LastDate(existing); !last.IsZero() {
		start = last.AddDate(0, 0, 1)
	} else if end.Month() == time.February && end.Day() == 29 {
		start = end.AddDate(0, 0, -5*365)
	} else {
		start = end.AddDate(-5, 0, 0)
	}

	return start, end, start.After(end)
}

// MergeSave appends fresh rows to the existing dataset and writes the
// result to path, returning the merged table. Rows concatenate by
// date; when both sides have a row for the same date the fresh row
// wins wholesale. A nil or empty fresh table leaves the stored file
// untouched and returns existing unchanged.
func (s *Store) MergeSave(ctx context.Context, existing, fresh *domain.YieldTable, path string) (*domain.YieldTable, error) {
	if fresh == nil || fresh.IsEmpty() {
		s.logger.WarnContext(ctx, "no fresh rows collected, keeping stored dataset untouched",
			slog.String("path", path))
		return existing, nil
	}

	merged := mergeKeepFresh(existing, fresh)
	if err := s.Save(ctx, merged, path); err != nil {
		return nil, err
	}
	return merged, nil
}

// mergeKeepFresh row-concatenates two tables. Dates present in fresh
// take the entire fresh row; columns the fresh row lacks become
// missing for that date.
func mergeKeepFresh(existing, fresh *domain.YieldTable) *domain.YieldTable {
	if existing == nil || existing.IsEmpty() {
		return fresh.Clone()
	}

	out := domain.NewYieldTable()
	for _, code := range existing.Columns() {
		out.AddColumn(code)
	}
	for _, code := range fresh.Columns() {
		out.AddColumn(code)
	}

	freshDates := make(map[time.Time]bool, fresh.Len())
	for _, d := range fresh.Dates() {
		freshDates[d] = true
	}

	for _, d := range existing.Dates() {
		if freshDates[d] {
			continue
		}
		for code, v := range existing.Row(d) {
			out.SetCell(d, code, v)
		}
	}
	for _, d := range fresh.Dates() {
		for code, v := range fresh.Row(d) {
			out.SetCell(d, code, v)
		}
	}
	return out
}

// Save writes a dataset atomically: the table is written to a temp
// file in the target directory and renamed over path, so readers never
// observe a half-written dataset.
func (s *Store) Save(ctx context.Context, t *domain.YieldTable, path string) error {
	if t == nil {
		return fmt.Errorf("cannot save nil table to %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeTable(tmp, t, s.bom); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace dataset file: %w", err)
	}

	s.logger.InfoContext(ctx, "saved dataset",
		slog.String("path", path),
		slog.Int("rows", t.Len()),
		slog.Int("columns", t.Width()))
	return nil
}

func writeTable(f *os.File, t *domain.YieldTable, bom bool) error {
	if bom {
		if _, err := f.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(f)
	columns := t.Columns()

	header := append([]string{"Date"}, columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, d := range t.Dates() {
		record := make([]string, 0, len(columns)+1)
		record = append(record, d.Format(dateLayout))
		for _, code := range columns {
			record = append(record, formatCell(t.ValueAt(i, code)))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCell(v float64) string {
	if domain.IsMissing(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// readTable parses a wide-table CSV. Any structural problem, a header
// without a leading Date column or a row with an unparseable date,
// fails the whole file; individual non-numeric cells parse as missing.
func readTable(f *os.File) (*domain.YieldTable, error) {
	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	if len(header) < 2 || header[0] != "Date" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	columns := header[1:]

	t := domain.NewYieldTable()
	for _, code := range columns {
		t.AddColumn(code)
	}
	for i, record := range records[1:] {
		date, err := time.Parse(dateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("bad date in row %d: %w", i+1, err)
		}
		for j, code := range columns {
			t.SetCell(date, code, parseCell(record[j+1]))
		}
	}
	return t, nil
}

func parseCell(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return domain.Missing()
	}
	return v
}
