package dataprocessing

import (
	"bondpulse/pkg/contracts/domain"
)

// FillCalendar reindexes t onto a contiguous daily calendar between its
// earliest and latest date and forward-fills every gap, so non-trading
// days carry the last known value. A column's leading cells stay missing
// until its first observation. Single-row tables are valid (a calendar
// of one day). The operation is idempotent and never mutates its input.
func FillCalendar(t *domain.YieldTable) *domain.YieldTable {
	if t == nil {
		return nil
	}
	if t.IsEmpty() {
		return t.Clone()
	}

	codes := t.Columns()
	out := domain.NewYieldTable()
	for _, code := range codes {
		out.AddColumn(code)
	}

	// Frontier of last observed values per column
	last := make(map[string]float64, len(codes))
	for _, code := range codes {
		last[code] = domain.Missing()
	}

	dates := t.Dates()
	src := 0
	for d := t.MinDate(); !d.After(t.MaxDate()); d = d.AddDate(0, 0, 1) {
		if src < len(dates) && dates[src].Equal(d) {
			for _, code := range codes {
				if v := t.ValueAt(src, code); !domain.IsMissing(v) {
					last[code] = v
				}
			}
			src++
		}
		for _, code := range codes {
			out.SetCell(d, code, last[code])
		}
	}

	return out
}
