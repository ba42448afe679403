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

func TestBuildCurvePoints(t *testing.T) {
	table := domain.NewYieldTable()
	// 2026-01-15 serves the 30-day lookback, 2026-02-11 the 7-day one
	for _, obs := range []struct {
		date  time.Time
		code  string
		value float64
	}{
		{domain.NewDay(2026, time.January, 15), "US_2Y", 3.80},
		{domain.NewDay(2026, time.January, 15), "US_10Y", 4.00},
		{domain.NewDay(2026, time.January, 15), "US_30Y", 4.40},
		{domain.NewDay(2026, time.February, 11), "US_2Y", 3.85},
		{domain.NewDay(2026, time.February, 11), "US_10Y", 4.05},
		{domain.NewDay(2026, time.February, 11), "US_30Y", 4.45},
		{domain.NewDay(2026, time.February, 18), "US_2Y", 3.92},
		{domain.NewDay(2026, time.February, 18), "US_10Y", 4.15},
		{domain.NewDay(2026, time.February, 18), "US_30Y", 4.52},
	} {
		table.SetCell(obs.date, obs.code, obs.value)
	}

	s := NewSummarizer(nil)
	snap, err := s.BuildCurve(context.Background(), table, "US", domain.NewDay(2026, time.February, 18))
	require.NoError(t, err)

	assert.Equal(t, "US", snap.Country)
	assert.Equal(t, domain.NewDay(2026, time.February, 18), snap.ReferenceDate)

	// Only the tenors present in the table, in curve order
	var tenors []int
	for _, p := range snap.Points {
		tenors = append(tenors, p.Tenor)
	}
	assert.Equal(t, []int{2, 10, 30}, tenors)

	tenYear := snap.Points[1]
	require.NotNil(t, tenYear.Current)
	assert.InDelta(t, 4.15, *tenYear.Current, 1e-9)
	require.NotNil(t, tenYear.WeekAgo)
	assert.InDelta(t, 4.05, *tenYear.WeekAgo, 1e-9)
	require.NotNil(t, tenYear.MonthAgo)
	assert.InDelta(t, 4.00, *tenYear.MonthAgo, 1e-9)

	require.NotNil(t, tenYear.DeltaWeekBp)
	assert.InDelta(t, 10.0, *tenYear.DeltaWeekBp, 1e-9)
	require.NotNil(t, tenYear.DeltaMonthBp)
	assert.InDelta(t, 15.0, *tenYear.DeltaMonthBp, 1e-9)
}

func TestBuildCurveKoreanAlias(t *testing.T) {
	d := domain.NewDay(2026, time.February, 18)

	table := domain.NewYieldTable()
	table.SetCell(d, "KTB_2Y", 2.60)
	table.SetCell(d, "KTB_10Y", 2.87)

	s := NewSummarizer(nil)
	snap, err := s.BuildCurve(context.Background(), table, "KR", d)
	require.NoError(t, err)

	assert.Equal(t, "KR", snap.Country)
	require.Len(t, snap.Points, 2)
	assert.Equal(t, 2, snap.Points[0].Tenor)
	assert.Equal(t, 10, snap.Points[1].Tenor)
	require.NotNil(t, snap.Points[1].Current)
	assert.InDelta(t, 2.87, *snap.Points[1].Current, 1e-9)
}

func TestBuildCurveWithoutHistory(t *testing.T) {
	d := domain.NewDay(2026, time.February, 18)

	table := domain.NewYieldTable()
	table.SetCell(d, "US_10Y", 4.15)

	s := NewSummarizer(nil)
	snap, err := s.BuildCurve(context.Background(), table, "US", d)
	require.NoError(t, err)
	require.Len(t, snap.Points, 1)

	p := snap.Points[0]
	require.NotNil(t, p.Current)
	assert.Nil(t, p.WeekAgo)
	assert.Nil(t, p.MonthAgo)
	assert.Nil(t, p.DeltaWeekBp)
	assert.Nil(t, p.DeltaMonthBp)
}

func TestBuildCurveUnknownCountry(t *testing.T) {
	d := domain.NewDay(2026, time.February, 18)

	table := domain.NewYieldTable()
	table.SetCell(d, "US_10Y", 4.15)

	s := NewSummarizer(nil)
	_, err := s.BuildCurve(context.Background(), table, "BR", d)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
	assert.Contains(t, appErr.Error(), "country BR")
}

func TestBuildCurveNoDataset(t *testing.T) {
	s := NewSummarizer(nil)
	d := domain.NewDay(2026, time.February, 18)

	_, err := s.BuildCurve(context.Background(), nil, "US", d)
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)

	_, err = s.BuildCurve(context.Background(), domain.NewYieldTable(), "US", d)
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)
}
