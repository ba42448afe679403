package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/internal/config"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/exporter"
	"bondpulse/internal/shared/testutil"
	"bondpulse/internal/store"
	"bondpulse/pkg/contracts/domain"
)

func newTestPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	reportsDir := filepath.Join(dataDir, "reports")
	paths := &config.Paths{
		ExecutableDir: base,
		DataDir:       dataDir,
		DownloadsDir:  filepath.Join(dataDir, "downloads"),
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(base, "logs"),

		TreasuryCSV:    filepath.Join(dataDir, config.TreasuryCSVName),
		BondSummaryCSV: filepath.Join(dataDir, config.BondSummaryCSVName),

		BondSummaryXLSX:  filepath.Join(dataDir, config.BondSummaryXLSXName),
		YieldWorkbook:    filepath.Join(reportsDir, config.YieldWorkbookName),
		ChangeSummaryCSV: filepath.Join(reportsDir, config.ChangeSummaryCSVName),
	}
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

// seedDatasets stores a treasury table with a gap and a portal table
// that starts one day later, so merge behavior is observable.
func seedDatasets(t *testing.T, paths *config.Paths) {
	t.Helper()
	ctx := context.Background()
	logger, _ := testutil.NewTestLogger(t)
	st := store.NewStore(logger)

	treasury := domain.NewYieldTable()
	treasury.SetCell(domain.NewDay(2026, time.February, 16), "US_10Y", 4.50)
	treasury.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.60)
	require.NoError(t, st.Save(ctx, treasury, paths.TreasuryCSV))

	portal := domain.NewYieldTable()
	portal.SetCell(domain.NewDay(2026, time.February, 17), "KTB_10Y", 2.80)
	portal.SetCell(domain.NewDay(2026, time.February, 18), "KTB_10Y", 2.85)
	require.NoError(t, st.Save(ctx, portal, paths.BondSummaryCSV))
}

func newTestDataService(t *testing.T) (*DataService, *config.Paths) {
	t.Helper()
	paths := newTestPaths(t)
	logger, _ := testutil.NewTestLogger(t)
	return NewDataService(paths, logger), paths
}

func TestMergedTableJoinsSources(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)

	merged, err := ds.MergedTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, merged.Len(), "calendar fill should close the Feb 17 gap")
	assert.ElementsMatch(t, []string{"US_10Y", "KTB_10Y"}, merged.Columns())

	feb17 := domain.NewDay(2026, time.February, 17)
	assert.InDelta(t, 4.50, merged.Value(feb17, "US_10Y"), 1e-9,
		"the gap day should carry the previous observation forward")
	assert.InDelta(t, 2.80, merged.Value(feb17, "KTB_10Y"), 1e-9)
	assert.True(t, domain.IsMissing(merged.Value(domain.NewDay(2026, time.February, 16), "KTB_10Y")),
		"the portal column starts later and must stay missing before its first row")
}

func TestMergedTableSingleSource(t *testing.T) {
	ds, paths := newTestDataService(t)

	ctx := context.Background()
	logger, _ := testutil.NewTestLogger(t)
	st := store.NewStore(logger)
	treasury := domain.NewYieldTable()
	treasury.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.60)
	require.NoError(t, st.Save(ctx, treasury, paths.TreasuryCSV))

	merged, err := ds.MergedTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"US_10Y"}, merged.Columns())
}

func TestMergedTableNoDatasets(t *testing.T) {
	ds, _ := newTestDataService(t)

	_, err := ds.MergedTable(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)
}

func TestYieldsClipsWindow(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)
	ctx := context.Background()

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		rows int
	}{
		{"open window", time.Time{}, time.Time{}, 3},
		{"single day", domain.NewDay(2026, time.February, 17), domain.NewDay(2026, time.February, 17), 1},
		{"from only", domain.NewDay(2026, time.February, 17), time.Time{}, 2},
		{"window before data", time.Time{}, domain.NewDay(2026, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ds.Yields(ctx, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, table.Len())
		})
	}
}

func TestSummaryDefaultsToLatestDate(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)

	summary, err := ds.Summary(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, domain.NewDay(2026, time.February, 18), summary.ReferenceDate)

	var us *domain.ChangeRow
	for i := range summary.Rows {
		if summary.Rows[i].Country == "US" && summary.Rows[i].Tenor == 10 {
			us = &summary.Rows[i]
		}
	}
	require.NotNil(t, us, "the US 10Y pair must be in the summary")
	require.NotNil(t, us.Level)
	assert.InDelta(t, 4.60, *us.Level, 1e-9)
	oneDay := us.Delta(domain.Lookback1D)
	require.NotNil(t, oneDay)
	assert.InDelta(t, 10.0, *oneDay, 1e-9, "4.50 to 4.60 is a ten basis point move")
}

func TestCurveNormalizesCountryCase(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)

	curve, err := ds.Curve(context.Background(), "us", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "US", curve.Country)
	require.Len(t, curve.Points, 1, "only the 10Y tenor is stored")
	assert.Equal(t, 10, curve.Points[0].Tenor)
}

func TestCurveUnknownCountry(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)

	_, err := ds.Curve(context.Background(), "BR", time.Time{})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
}

func TestCurvesSkipCountriesWithoutData(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)

	curves, err := ds.Curves(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, curves, 2)

	countries := []string{curves[0].Country, curves[1].Country}
	assert.ElementsMatch(t, []string{"US", "KR"}, countries)
}

func TestExportWorkbookWritesDatedCopy(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)

	path, err := ds.ExportWorkbook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, paths.YieldWorkbook, path)
	assert.FileExists(t, path)
	assert.FileExists(t, paths.GetDatedWorkbookPath(domain.NewDay(2026, time.February, 18)))

	table, err := exporter.ReadTable(path, exporter.SheetYields)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestExportReportsWritesSummaryAndCurves(t *testing.T) {
	ds, paths := newTestDataService(t)
	seedDatasets(t, paths)

	written, err := ds.ExportReports(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, paths.ChangeSummaryCSV, written[0])
	for _, path := range written {
		assert.FileExists(t, path)
	}
}

func TestExportReportsNoDataset(t *testing.T) {
	ds, _ := newTestDataService(t)

	_, err := ds.ExportReports(context.Background(), time.Time{})
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)
}

func TestLatestWorkbook(t *testing.T) {
	ds, paths := newTestDataService(t)

	_, ok := ds.LatestWorkbook()
	assert.False(t, ok, "no workbooks exported yet")

	seedDatasets(t, paths)
	_, err := ds.ExportWorkbook(context.Background())
	require.NoError(t, err)

	latest, ok := ds.LatestWorkbook()
	require.True(t, ok)
	assert.Equal(t, "yields_20260218.xlsx", latest.Name)
}
