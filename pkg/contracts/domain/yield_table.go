package domain

import (
	"math"
	"sort"
	"time"
)

// Missing returns the sentinel for an absent yield value. Cells are
// float64 NaN when missing, never a placeholder string or zero.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Day normalizes t to midnight UTC. All table dates are day-granular.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDay builds a day-granular UTC date.
func NewDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// YieldPoint is a single dated observation in percent.
type YieldPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// YieldSeries is an ordered date→value series for one instrument.
type YieldSeries []YieldPoint

// Sort orders the series by date ascending.
func (s YieldSeries) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// Empty reports whether the series has no observations.
func (s YieldSeries) Empty() bool {
	return len(s) == 0
}

// YieldTable is a date-indexed wide table whose columns are instrument
// codes. The index is strictly increasing with unique dates; cells are
// float64 with NaN for missing. Collectors mutate a table while building
// it; once handed off, consumers must treat it as an immutable value and
// clone before transforming.
type YieldTable struct {
	dates   []time.Time
	columns []string
	cells   map[string][]float64
}

// NewYieldTable returns an empty table.
func NewYieldTable() *YieldTable {
	return &YieldTable{cells: make(map[string][]float64)}
}

// NewYieldTableFromSeries assembles a table from per-column series.
// Columns appear in the order given; series dates may arrive unsorted
// and are normalized to day granularity.
func NewYieldTableFromSeries(series map[string]YieldSeries, order []string) *YieldTable {
	t := NewYieldTable()
	for _, code := range order {
		s, ok := series[code]
		if !ok {
			continue
		}
		t.AddColumn(code)
		for _, p := range s {
			t.SetCell(p.Date, code, p.Value)
		}
	}
	return t
}

// Len returns the number of dates.
func (t *YieldTable) Len() int { return len(t.dates) }

// Width returns the number of columns.
func (t *YieldTable) Width() int { return len(t.columns) }

// IsEmpty reports whether the table has no rows or no columns.
func (t *YieldTable) IsEmpty() bool { return len(t.dates) == 0 || len(t.columns) == 0 }

// Columns returns the column codes in order.
func (t *YieldTable) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Dates returns the date index in ascending order.
func (t *YieldTable) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// HasColumn reports whether code is a column of the table.
func (t *YieldTable) HasColumn(code string) bool {
	_, ok := t.cells[code]
	return ok
}

// MinDate returns the earliest date, zero when empty.
func (t *YieldTable) MinDate() time.Time {
	if len(t.dates) == 0 {
		return time.Time{}
	}
	return t.dates[0]
}

// MaxDate returns the latest date, zero when empty.
func (t *YieldTable) MaxDate() time.Time {
	if len(t.dates) == 0 {
		return time.Time{}
	}
	return t.dates[len(t.dates)-1]
}

// AddColumn appends a column of missing values if absent.
func (t *YieldTable) AddColumn(code string) {
	if _, ok := t.cells[code]; ok {
		return
	}
	col := make([]float64, len(t.dates))
	for i := range col {
		col[i] = Missing()
	}
	t.columns = append(t.columns, code)
	t.cells[code] = col
}

// dateIndex finds the row for d, or the insertion point when absent.
func (t *YieldTable) dateIndex(d time.Time) (int, bool) {
	i := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(d) })
	if i < len(t.dates) && t.dates[i].Equal(d) {
		return i, true
	}
	return i, false
}

// ensureDate inserts a row of missing values for d, keeping the index
// strictly increasing, and returns its position.
func (t *YieldTable) ensureDate(d time.Time) int {
	i, ok := t.dateIndex(d)
	if ok {
		return i
	}
	t.dates = append(t.dates, time.Time{})
	copy(t.dates[i+1:], t.dates[i:])
	t.dates[i] = d
	for code, col := range t.cells {
		col = append(col, 0)
		copy(col[i+1:], col[i:])
		col[i] = Missing()
		t.cells[code] = col
	}
	return i
}

// SetCell stores value at (date, code), creating the row and column as
// needed. The date is normalized to day granularity.
func (t *YieldTable) SetCell(date time.Time, code string, value float64) {
	date = Day(date)
	t.AddColumn(code)
	i := t.ensureDate(date)
	t.cells[code][i] = value
}

// Value returns the cell at (date, code); missing when either the date
// or the column is absent.
func (t *YieldTable) Value(date time.Time, code string) float64 {
	col, ok := t.cells[code]
	if !ok {
		return Missing()
	}
	i, found := t.dateIndex(Day(date))
	if !found {
		return Missing()
	}
	return col[i]
}

// ValueAt returns the cell at row index i for code.
func (t *YieldTable) ValueAt(i int, code string) float64 {
	col, ok := t.cells[code]
	if !ok || i < 0 || i >= len(col) {
		return Missing()
	}
	return col[i]
}

// DateAt returns the date at row index i.
func (t *YieldTable) DateAt(i int) time.Time {
	return t.dates[i]
}

// Row returns a copy of the row at date keyed by column code; an
// all-missing map when the date is absent.
func (t *YieldTable) Row(date time.Time) map[string]float64 {
	row := make(map[string]float64, len(t.columns))
	i, found := t.dateIndex(Day(date))
	for _, code := range t.columns {
		if found {
			row[code] = t.cells[code][i]
		} else {
			row[code] = Missing()
		}
	}
	return row
}

// Column returns a copy of the values for code aligned to Dates.
func (t *YieldTable) Column(code string) []float64 {
	col, ok := t.cells[code]
	if !ok {
		return nil
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out
}

// Clone returns a deep copy.
func (t *YieldTable) Clone() *YieldTable {
	c := &YieldTable{
		dates:   make([]time.Time, len(t.dates)),
		columns: make([]string, len(t.columns)),
		cells:   make(map[string][]float64, len(t.cells)),
	}
	copy(c.dates, t.dates)
	copy(c.columns, t.columns)
	for code, col := range t.cells {
		dup := make([]float64, len(col))
		copy(dup, col)
		c.cells[code] = dup
	}
	return c
}

// SelectColumns returns a copy containing only the listed columns, in
// the listed order; unknown codes are skipped.
func (t *YieldTable) SelectColumns(order []string) *YieldTable {
	out := NewYieldTable()
	out.dates = make([]time.Time, len(t.dates))
	copy(out.dates, t.dates)
	for _, code := range order {
		col, ok := t.cells[code]
		if !ok {
			continue
		}
		dup := make([]float64, len(col))
		copy(dup, col)
		out.columns = append(out.columns, code)
		out.cells[code] = dup
	}
	return out
}

// AllMissingColumns returns the codes whose every cell is missing.
func (t *YieldTable) AllMissingColumns() []string {
	var out []string
	for _, code := range t.columns {
		all := true
		for _, v := range t.cells[code] {
			if !IsMissing(v) {
				all = false
				break
			}
		}
		if all {
			out = append(out, code)
		}
	}
	return out
}

// YieldRecord is the JSON-facing form of one table row. Missing cells
// become null rather than NaN, which encoding/json cannot emit.
type YieldRecord struct {
	Date   time.Time           `json:"date"`
	Values map[string]*float64 `json:"values"`
}

// Records converts the table to JSON-facing rows in date order.
func (t *YieldTable) Records() []YieldRecord {
	recs := make([]YieldRecord, len(t.dates))
	for i, d := range t.dates {
		values := make(map[string]*float64, len(t.columns))
		for _, code := range t.columns {
			v := t.cells[code][i]
			if IsMissing(v) {
				values[code] = nil
			} else {
				f := v
				values[code] = &f
			}
		}
		recs[i] = YieldRecord{Date: d, Values: values}
	}
	return recs
}
