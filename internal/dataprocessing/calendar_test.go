package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/pkg/contracts/domain"
)

// assertSameTable compares two tables cell by cell with NaN-aware
// equality. Shared across the package tests.
func assertSameTable(t *testing.T, want, got *domain.YieldTable) {
	t.Helper()
	require.NotNil(t, got)
	require.Equal(t, want.Dates(), got.Dates())
	require.ElementsMatch(t, want.Columns(), got.Columns())
	for _, code := range want.Columns() {
		for _, d := range want.Dates() {
			wv := want.Value(d, code)
			gv := got.Value(d, code)
			if domain.IsMissing(wv) {
				assert.True(t, domain.IsMissing(gv),
					"expected missing at %s/%s, got %v", d.Format("2006-01-02"), code, gv)
			} else {
				assert.InDelta(t, wv, gv, 1e-9,
					"cell %s/%s", d.Format("2006-01-02"), code)
			}
		}
	}
}

func TestFillCalendarClosesGaps(t *testing.T) {
	raw := domain.NewYieldTable()
	raw.SetCell(domain.NewDay(2026, time.February, 16), "US_10Y", 4.10)
	raw.SetCell(domain.NewDay(2026, time.February, 19), "US_10Y", 4.15)

	filled := FillCalendar(raw)
	require.NotNil(t, filled)

	assert.Equal(t, 4, filled.Len())
	assert.Equal(t, domain.NewDay(2026, time.February, 16), filled.MinDate())
	assert.Equal(t, domain.NewDay(2026, time.February, 19), filled.MaxDate())

	// Gap days carry the last observed value
	assert.InDelta(t, 4.10, filled.Value(domain.NewDay(2026, time.February, 17), "US_10Y"), 1e-9)
	assert.InDelta(t, 4.10, filled.Value(domain.NewDay(2026, time.February, 18), "US_10Y"), 1e-9)
	assert.InDelta(t, 4.15, filled.Value(domain.NewDay(2026, time.February, 19), "US_10Y"), 1e-9)
}

func TestFillCalendarIdempotent(t *testing.T) {
	raw := domain.NewYieldTable()
	raw.SetCell(domain.NewDay(2026, time.January, 5), "US_2Y", 4.30)
	raw.SetCell(domain.NewDay(2026, time.January, 9), "US_2Y", 4.35)
	raw.SetCell(domain.NewDay(2026, time.January, 7), "KTB_10Y", 2.80)

	once := FillCalendar(raw)
	twice := FillCalendar(once)

	assertSameTable(t, once, twice)
}

func TestFillCalendarSingleRow(t *testing.T) {
	raw := domain.NewYieldTable()
	raw.SetCell(domain.NewDay(2026, time.March, 2), "DE_10Y", 2.45)

	filled := FillCalendar(raw)
	require.NotNil(t, filled)
	assert.Equal(t, 1, filled.Len())
	assert.InDelta(t, 2.45, filled.Value(domain.NewDay(2026, time.March, 2), "DE_10Y"), 1e-9)
}

func TestFillCalendarLeadingMissingStays(t *testing.T) {
	raw := domain.NewYieldTable()
	raw.SetCell(domain.NewDay(2026, time.February, 16), "US_10Y", 4.10)
	raw.SetCell(domain.NewDay(2026, time.February, 18), "KTB_10Y", 2.80)

	filled := FillCalendar(raw)
	require.NotNil(t, filled)

	// KTB_10Y has no observation before the 18th; nothing to fill from
	assert.True(t, domain.IsMissing(filled.Value(domain.NewDay(2026, time.February, 16), "KTB_10Y")))
	assert.True(t, domain.IsMissing(filled.Value(domain.NewDay(2026, time.February, 17), "KTB_10Y")))
	assert.InDelta(t, 2.80, filled.Value(domain.NewDay(2026, time.February, 18), "KTB_10Y"), 1e-9)

	// US_10Y fills forward across the same span
	assert.InDelta(t, 4.10, filled.Value(domain.NewDay(2026, time.February, 18), "US_10Y"), 1e-9)
}

func TestFillCalendarFillsMissingCellInObservedRow(t *testing.T) {
	raw := domain.NewYieldTable()
	raw.SetCell(domain.NewDay(2026, time.February, 16), "US_10Y", 4.10)
	raw.SetCell(domain.NewDay(2026, time.February, 16), "US_2Y", 4.40)
	// The 17th has a row but only one column observed
	raw.SetCell(domain.NewDay(2026, time.February, 17), "US_2Y", 4.42)

	filled := FillCalendar(raw)
	require.NotNil(t, filled)
	assert.InDelta(t, 4.10, filled.Value(domain.NewDay(2026, time.February, 17), "US_10Y"), 1e-9)
	assert.InDelta(t, 4.42, filled.Value(domain.NewDay(2026, time.February, 17), "US_2Y"), 1e-9)
}

func TestFillCalendarEmptyInputs(t *testing.T) {
	assert.Nil(t, FillCalendar(nil))

	empty := domain.NewYieldTable()
	filled := FillCalendar(empty)
	require.NotNil(t, filled)
	assert.True(t, filled.IsEmpty())
}
