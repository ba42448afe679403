package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"bondpulse/internal/catalog"
	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

// Summarizer derives change summaries and curve snapshots from the
// merged table. Summaries are read-only views regenerated on demand;
// they are never persisted independently of their source table.
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summary engine.
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger}
}

// LookbackDate computes the reference date for a lookback window by
// fixed calendar arithmetic, never by counting trading days.
func LookbackDate(ref time.Time, label string) time.Time {
	ref = domain.Day(ref)
	switch label {
	case domain.Lookback1D:
		return ref.AddDate(0, 0, -1)
	case domain.Lookback1W:
		return ref.AddDate(0, 0, -7)
	case domain.LookbackMTD:
		// Last day of the previous month
		return domain.NewDay(ref.Year(), ref.Month(), 1).AddDate(0, 0, -1)
	case domain.LookbackYTD:
		return domain.NewDay(ref.Year()-1, time.December, 31)
	case domain.LookbackYoY:
		return ref.AddDate(-1, 0, 0)
	}
	return ref
}

// ReferenceRow returns the row at the latest date at or before ref, or
// an all-missing row when the table starts after ref. Out-of-range
// reference dates are normal inputs, not errors.
func ReferenceRow(t *domain.YieldTable, ref time.Time) map[string]float64 {
	ref = domain.Day(ref)
	dates := t.Dates()
	i := sort.Search(len(dates), func(i int) bool { return dates[i].After(ref) })
	if i == 0 {
		row := make(map[string]float64, t.Width())
		for _, code := range t.Columns() {
			row[code] = domain.Missing()
		}
		return row
	}
	return t.Row(dates[i-1])
}

// ResolveColumn finds the table column for a (country, tenor) pair. The
// literal code is tried first, then the country's stored-prefix alias,
// so reporting can address Korean treasuries as KR while the dataset
// stores them as KTB.
func ResolveColumn(t *domain.YieldTable, country string, tenor int) (string, bool) {
	code := domain.SummaryCode(country, tenor)
	if t.HasColumn(code) {
		return code, true
	}
	if alias := catalog.CountryAlias(country); alias != country {
		code = domain.SummaryCode(alias, tenor)
		if t.HasColumn(code) {
			return code, true
		}
	}
	return "", false
}

// BuildSummary computes levels and basis-point deltas for the summary
// catalog (countries × tenors) relative to refDate. A delta is
// (current − reference) × 100; if either side is missing the delta is
// nil, never zero. Pairs whose column is absent from the table are
// skipped.
func (s *Summarizer) BuildSummary(ctx context.Context, t *domain.YieldTable, refDate time.Time) (*domain.ChangeSummary, error) {
	if t == nil || t.IsEmpty() {
		return nil, apperrors.ErrNoDataset
	}

	refDate = domain.Day(refDate)
	current := ReferenceRow(t, refDate)

	refs := make(map[string]map[string]float64, len(domain.LookbackOrder))
	for _, label := range domain.LookbackOrder {
		refs[label] = ReferenceRow(t, LookbackDate(refDate, label))
	}

	var rows []domain.ChangeRow
	for _, country := range catalog.SummaryCountries() {
		for _, tenor := range catalog.SummaryTenors() {
			code, ok := ResolveColumn(t, country, tenor)
			if !ok {
				continue
			}
			row := domain.ChangeRow{
				Country: country,
				Tenor:   tenor,
				Code:    code,
				Level:   domain.Float(current[code]),
			}
			for _, label := range domain.LookbackOrder {
				row.SetDelta(label, basisPointDelta(current[code], refs[label][code]))
			}
			rows = append(rows, row)
		}
	}

	s.logger.InfoContext(ctx, "built change summary",
		slog.Time("reference_date", refDate),
		slog.Int("rows", len(rows)))

	return &domain.ChangeSummary{
		ReferenceDate: refDate,
		Rows:          rows,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// basisPointDelta converts a pair of levels to a basis-point change,
// nil when either side is missing.
func basisPointDelta(current, reference float64) *float64 {
	if domain.IsMissing(current) || domain.IsMissing(reference) {
		return nil
	}
	d := (current - reference) * 100
	return &d
}
