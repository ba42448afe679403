package dataprocessing

import (
	"bondpulse/pkg/contracts/domain"
)

// Merge outer-joins two calendar-filled tables on date and forward-fills
// the union, producing the unified reporting table. The value set is
// independent of argument order for disjoint column sets; only the fill
// direction (past to future) is significant. A nil or empty input
// degrades to filling the other table alone.
func Merge(a, b *domain.YieldTable) *domain.YieldTable {
	aEmpty := a == nil || a.IsEmpty()
	bEmpty := b == nil || b.IsEmpty()
	switch {
	case aEmpty && bEmpty:
		return nil
	case aEmpty:
		return FillCalendar(b)
	case bEmpty:
		return FillCalendar(a)
	}

	out := domain.NewYieldTable()
	joinInto(out, a)
	joinInto(out, b)
	return FillCalendar(out)
}

// JoinOnDate joins per-batch tables on the date index without filling.
// Each batch only guarantees its own instrument columns, so this is a
// column-wise union rather than a row concat. When the same column
// appears in several batches, each date takes the first non-missing
// value in input order. Returns nil when no input carried data.
func JoinOnDate(tables []*domain.YieldTable) *domain.YieldTable {
	out := domain.NewYieldTable()
	for _, t := range tables {
		if t == nil || t.IsEmpty() {
			continue
		}
		joinInto(out, t)
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}

// joinInto copies src's non-missing cells into dst, preserving any
// value dst already holds for the same (date, column).
func joinInto(dst, src *domain.YieldTable) {
	dates := src.Dates()
	for _, code := range src.Columns() {
		dst.AddColumn(code)
		for i, d := range dates {
			v := src.ValueAt(i, code)
			if domain.IsMissing(v) {
				continue
			}
			if domain.IsMissing(dst.Value(d, code)) {
				dst.SetCell(d, code, v)
			}
		}
	}
}
