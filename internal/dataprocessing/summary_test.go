package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

func TestBuildSummaryDailyDelta(t *testing.T) {
	table := domain.NewYieldTable()
	table.SetCell(domain.NewDay(2026, time.February, 17), "US_10Y", 4.12)
	table.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)

	s := NewSummarizer(nil)
	summary, err := s.BuildSummary(context.Background(), table, domain.NewDay(2026, time.February, 18))
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)

	row := summary.Rows[0]
	assert.Equal(t, "US", row.Country)
	assert.Equal(t, 10, row.Tenor)
	assert.Equal(t, "US_10Y", row.Code)

	require.NotNil(t, row.Level)
	assert.InDelta(t, 4.15, *row.Level, 1e-9)

	// 4.15 against 4.12 one day back is +3 basis points
	require.NotNil(t, row.Change1D)
	assert.InDelta(t, 3.0, *row.Change1D, 1e-9)

	// Every other lookback lands before the table starts
	assert.Nil(t, row.Change1W)
	assert.Nil(t, row.ChangeMTD)
	assert.Nil(t, row.ChangeYTD)
	assert.Nil(t, row.ChangeYoY)

	assert.Equal(t, domain.NewDay(2026, time.February, 18), summary.ReferenceDate)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestLookbackDates(t *testing.T) {
	ref := domain.NewDay(2026, time.February, 18)

	tests := []struct {
		label string
		want  time.Time
	}{
		{domain.Lookback1D, domain.NewDay(2026, time.February, 17)},
		{domain.Lookback1W, domain.NewDay(2026, time.February, 11)},
		{domain.LookbackMTD, domain.NewDay(2026, time.January, 31)},
		{domain.LookbackYTD, domain.NewDay(2025, time.December, 31)},
		{domain.LookbackYoY, domain.NewDay(2025, time.February, 18)},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, LookbackDate(ref, tt.label))
		})
	}

	// Month-to-date from the first of a month reaches the prior month end
	assert.Equal(t, domain.NewDay(2026, time.February, 28),
		LookbackDate(domain.NewDay(2026, time.March, 1), domain.LookbackMTD))
}

func TestReferenceRow(t *testing.T) {
	table := domain.NewYieldTable()
	table.SetCell(domain.NewDay(2026, time.February, 16), "US_10Y", 4.10)
	table.SetCell(domain.NewDay(2026, time.February, 19), "US_10Y", 4.15)

	t.Run("before earliest date", func(t *testing.T) {
		row := ReferenceRow(table, domain.NewDay(2026, time.February, 10))
		assert.True(t, domain.IsMissing(row["US_10Y"]))
	})

	t.Run("exact date", func(t *testing.T) {
		row := ReferenceRow(table, domain.NewDay(2026, time.February, 16))
		assert.InDelta(t, 4.10, row["US_10Y"], 1e-9)
	})

	t.Run("between dates picks the earlier", func(t *testing.T) {
		row := ReferenceRow(table, domain.NewDay(2026, time.February, 17))
		assert.InDelta(t, 4.10, row["US_10Y"], 1e-9)
	})

	t.Run("after latest date picks the latest", func(t *testing.T) {
		row := ReferenceRow(table, domain.NewDay(2026, time.March, 5))
		assert.InDelta(t, 4.15, row["US_10Y"], 1e-9)
	})
}

func TestBuildSummaryMissingReferenceYieldsNilDelta(t *testing.T) {
	d17 := domain.NewDay(2026, time.February, 17)
	d18 := domain.NewDay(2026, time.February, 18)

	table := domain.NewYieldTable()
	table.SetCell(d17, "US_2Y", 3.90) // keeps the 17th in the date index
	table.SetCell(d17, "US_10Y", domain.Missing())
	table.SetCell(d18, "US_2Y", 3.92)
	table.SetCell(d18, "US_10Y", 4.15)

	s := NewSummarizer(nil)
	summary, err := s.BuildSummary(context.Background(), table, d18)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 2)

	tenYear := summary.Rows[1]
	require.Equal(t, "US_10Y", tenYear.Code)
	require.NotNil(t, tenYear.Level)
	// Reference side missing: delta must be nil, not zero
	assert.Nil(t, tenYear.Change1D)

	twoYear := summary.Rows[0]
	require.Equal(t, "US_2Y", twoYear.Code)
	require.NotNil(t, twoYear.Change1D)
	assert.InDelta(t, 2.0, *twoYear.Change1D, 1e-9)
}

func TestBuildSummaryMissingCurrentLevel(t *testing.T) {
	d17 := domain.NewDay(2026, time.February, 17)
	d18 := domain.NewDay(2026, time.February, 18)

	table := domain.NewYieldTable()
	table.SetCell(d17, "US_10Y", 4.12)
	table.SetCell(d18, "US_10Y", domain.Missing())
	table.SetCell(d18, "US_2Y", 3.92)

	s := NewSummarizer(nil)
	summary, err := s.BuildSummary(context.Background(), table, d18)
	require.NoError(t, err)

	var tenYear *domain.ChangeRow
	for i := range summary.Rows {
		if summary.Rows[i].Code == "US_10Y" {
			tenYear = &summary.Rows[i]
		}
	}
	require.NotNil(t, tenYear)
	assert.Nil(t, tenYear.Level)
	assert.Nil(t, tenYear.Change1D)
}

func TestBuildSummaryKoreanAlias(t *testing.T) {
	d17 := domain.NewDay(2026, time.February, 17)
	d18 := domain.NewDay(2026, time.February, 18)

	table := domain.NewYieldTable()
	table.SetCell(d17, "KTB_10Y", 2.84)
	table.SetCell(d18, "KTB_10Y", 2.87)

	s := NewSummarizer(nil)
	summary, err := s.BuildSummary(context.Background(), table, d18)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)

	row := summary.Rows[0]
	assert.Equal(t, "KR", row.Country)
	assert.Equal(t, "KTB_10Y", row.Code)
	require.NotNil(t, row.Change1D)
	assert.InDelta(t, 3.0, *row.Change1D, 1e-9)
}

func TestBuildSummaryRowOrder(t *testing.T) {
	d := domain.NewDay(2026, time.February, 18)

	table := domain.NewYieldTable()
	table.SetCell(d, "JP_10Y", 1.05)
	table.SetCell(d, "KTB_10Y", 2.87)
	table.SetCell(d, "US_2Y", 3.92)
	table.SetCell(d, "US_10Y", 4.15)

	s := NewSummarizer(nil)
	summary, err := s.BuildSummary(context.Background(), table, d)
	require.NoError(t, err)

	var codes []string
	for _, row := range summary.Rows {
		codes = append(codes, row.Code)
	}
	// Catalog order by country then tenor; absent pairs are skipped
	assert.Equal(t, []string{"US_2Y", "US_10Y", "KTB_10Y", "JP_10Y"}, codes)
}

func TestBuildSummaryNoDataset(t *testing.T) {
	s := NewSummarizer(nil)

	_, err := s.BuildSummary(context.Background(), nil, domain.NewDay(2026, time.February, 18))
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)

	_, err = s.BuildSummary(context.Background(), domain.NewYieldTable(), domain.NewDay(2026, time.February, 18))
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)
}
