package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Lookback window labels for change summaries. Reference dates are
// computed by calendar arithmetic, never by counting trading days.
const (
	Lookback1D  = "1D"
	Lookback1W  = "1W"
	LookbackMTD = "MTD"
	LookbackYTD = "YTD"
	LookbackYoY = "YoY"
)

// LookbackOrder is the fixed presentation order of lookback windows.
var LookbackOrder = []string{Lookback1D, Lookback1W, LookbackMTD, LookbackYTD, LookbackYoY}

// ChangeRow holds the current level and basis-point deltas of one
// country/tenor pair relative to a reference date. Pointer fields are
// nil when either side of a delta is missing; a missing delta is never
// reported as zero.
type ChangeRow struct {
	Country   string   `json:"country" csv:"Country"`
	Tenor     int      `json:"tenor" csv:"Tenor"`
	Code      string   `json:"code" csv:"Code"`
	Level     *float64 `json:"level" csv:"Level"`
	Change1D  *float64 `json:"change_1d" csv:"Change1D"`
	Change1W  *float64 `json:"change_1w" csv:"Change1W"`
	ChangeMTD *float64 `json:"change_mtd" csv:"ChangeMTD"`
	ChangeYTD *float64 `json:"change_ytd" csv:"ChangeYTD"`
	ChangeYoY *float64 `json:"change_yoy" csv:"ChangeYoY"`
}

// Delta returns the stored delta for a lookback label.
func (r *ChangeRow) Delta(label string) *float64 {
	switch label {
	case Lookback1D:
		return r.Change1D
	case Lookback1W:
		return r.Change1W
	case LookbackMTD:
		return r.ChangeMTD
	case LookbackYTD:
		return r.ChangeYTD
	case LookbackYoY:
		return r.ChangeYoY
	}
	return nil
}

// SetDelta stores a delta under a lookback label.
func (r *ChangeRow) SetDelta(label string, v *float64) {
	switch label {
	case Lookback1D:
		r.Change1D = v
	case Lookback1W:
		r.Change1W = v
	case LookbackMTD:
		r.ChangeMTD = v
	case LookbackYTD:
		r.ChangeYTD = v
	case LookbackYoY:
		r.ChangeYoY = v
	}
}

// ChangeSummary is a read-only snapshot of levels and deltas for one
// reference date. Regenerated on demand from its source table, never
// persisted independently.
type ChangeSummary struct {
	ReferenceDate time.Time   `json:"reference_date"`
	Rows          []ChangeRow `json:"rows"`
	GeneratedAt   time.Time   `json:"generated_at"`
}

// CSVHeaders returns the column headers for CSV serialization.
func (s *ChangeSummary) CSVHeaders() []string {
	return []string{"Country", "Tenor", "Code", "Level", "Change1D", "Change1W", "ChangeMTD", "ChangeYTD", "ChangeYoY"}
}

// CSVRecord renders one row; missing values serialize as NaN per the
// wide-table file contract.
func (r *ChangeRow) CSVRecord() []string {
	return []string{
		r.Country,
		strconv.Itoa(r.Tenor),
		r.Code,
		formatCell(r.Level),
		formatCell(r.Change1D),
		formatCell(r.Change1W),
		formatCell(r.ChangeMTD),
		formatCell(r.ChangeYTD),
		formatCell(r.ChangeYoY),
	}
}

func formatCell(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// CurvePoint is one tenor on a country's yield curve with its level at
// the reference date and at the 1-week and 1-month lookbacks.
type CurvePoint struct {
	Tenor        int      `json:"tenor"`
	Current      *float64 `json:"current"`
	WeekAgo      *float64 `json:"week_ago"`
	MonthAgo     *float64 `json:"month_ago"`
	DeltaWeekBp  *float64 `json:"delta_week_bp"`
	DeltaMonthBp *float64 `json:"delta_month_bp"`
}

// CurveSnapshot is the full yield curve of one country at a reference
// date with 1-week and 1-month comparison levels.
type CurveSnapshot struct {
	Country       string       `json:"country"`
	ReferenceDate time.Time    `json:"reference_date"`
	Points        []CurvePoint `json:"points"`
}

// CSVHeaders returns the column headers for CSV serialization.
func (c *CurveSnapshot) CSVHeaders() []string {
	return []string{"Country", "Tenor", "Current", "WeekAgo", "MonthAgo", "DeltaWeekBp", "DeltaMonthBp"}
}

// CSVRecords renders the snapshot rows.
func (c *CurveSnapshot) CSVRecords() [][]string {
	recs := make([][]string, len(c.Points))
	for i, p := range c.Points {
		recs[i] = []string{
			c.Country,
			strconv.Itoa(p.Tenor),
			formatCell(p.Current),
			formatCell(p.WeekAgo),
			formatCell(p.MonthAgo),
			formatCell(p.DeltaWeekBp),
			formatCell(p.DeltaMonthBp),
		}
	}
	return recs
}

// Float converts a table cell to the pointer form used by summary
// types: missing becomes nil.
func Float(v float64) *float64 {
	if IsMissing(v) {
		return nil
	}
	return &v
}

// SummaryCode returns the wide-table column a (country, tenor) pair
// resolves to, e.g. ("US", 10) -> "US_10Y".
func SummaryCode(country string, tenor int) string {
	return fmt.Sprintf("%s_%dY", country, tenor)
}
