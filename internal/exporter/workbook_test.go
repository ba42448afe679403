package exporter

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuri/excelize/v2"

	"bondpulse/pkg/contracts/domain"
)

func buildMergedTable() *domain.YieldTable {
	table := domain.NewYieldTable()
	table.SetCell(domain.NewDay(2026, time.February, 17), "US_10Y", 4.12)
	table.SetCell(domain.NewDay(2026, time.February, 17), "KTB_10Y", domain.Missing())
	table.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)
	table.SetCell(domain.NewDay(2026, time.February, 18), "KTB_10Y", 2.87)
	return table
}

func TestWriteWorkbookAndReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "yields.xlsx")

	merged := buildMergedTable()
	summary := &domain.ChangeSummary{
		ReferenceDate: domain.NewDay(2026, time.February, 18),
		Rows: []domain.ChangeRow{
			{Country: "US", Tenor: 10, Code: "US_10Y", Level: fl(4.15), Change1D: fl(3)},
		},
	}
	curves := []*domain.CurveSnapshot{
		{Country: "US", Points: []domain.CurvePoint{{Tenor: 10, Current: fl(4.15)}}},
		{Country: "KR", Points: []domain.CurvePoint{{Tenor: 10, Current: fl(2.87)}}},
	}

	require.NoError(t, WriteWorkbook(path, merged, summary, curves))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, SheetYields)
	assert.Contains(t, sheets, SheetSummary)
	assert.Contains(t, sheets, "Curve US")
	assert.Contains(t, sheets, "Curve KR")

	summaryRows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summaryRows, 2)
	assert.Equal(t, "Country", summaryRows[0][0])
	assert.Equal(t, "US", summaryRows[1][0])
	assert.Equal(t, "4.15", summaryRows[1][3])

	got, err := ReadTable(path, SheetYields)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, merged.Dates(), got.Dates())
	assert.Equal(t, merged.Columns(), got.Columns())
	assert.InDelta(t, 4.12, got.Value(domain.NewDay(2026, time.February, 17), "US_10Y"), 1e-9)
	// Empty cell reads back as missing
	assert.True(t, math.IsNaN(got.Value(domain.NewDay(2026, time.February, 17), "KTB_10Y")))
	assert.InDelta(t, 2.87, got.Value(domain.NewDay(2026, time.February, 18), "KTB_10Y"), 1e-9)
}

func TestWriteWorkbookWithoutSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yields.xlsx")

	require.NoError(t, WriteWorkbook(path, buildMergedTable(), nil, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetYields}, f.GetSheetList())
}

func TestWriteWorkbookEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yields.xlsx")

	assert.Error(t, WriteWorkbook(path, nil, nil, nil))
	assert.Error(t, WriteWorkbook(path, domain.NewYieldTable(), nil, nil))
}

func TestWriteTableWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bond_summary_A.xlsx")

	table := domain.NewYieldTable()
	table.SetCell(domain.NewDay(2026, time.February, 18), "KTB_10Y", 2.87)
	table.SetCell(domain.NewDay(2026, time.February, 18), "KTB_1Y", 2.45)

	require.NoError(t, WriteTableWorkbook(path, "Export", table))

	got, err := ReadTable(path, "Export")
	require.NoError(t, err)
	assert.Equal(t, table.Columns(), got.Columns())
	assert.InDelta(t, 2.87, got.Value(domain.NewDay(2026, time.February, 18), "KTB_10Y"), 1e-9)
}

func TestWriteTableWorkbookEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	assert.Error(t, WriteTableWorkbook(path, "Export", nil))
}

func TestReadTableErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadTable(filepath.Join(dir, "absent.xlsx"), SheetYields)
		assert.Error(t, err)
	})

	t.Run("missing sheet", func(t *testing.T) {
		path := filepath.Join(dir, "ok.xlsx")
		table := domain.NewYieldTable()
		table.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)
		require.NoError(t, WriteTableWorkbook(path, "Export", table))

		_, err := ReadTable(path, "NoSuchSheet")
		assert.Error(t, err)
	})

	t.Run("wrong header", func(t *testing.T) {
		path := filepath.Join(dir, "badheader.xlsx")
		f := excelize.NewFile()
		require.NoError(t, f.SetCellValue("Sheet1", "A1", "Timestamp"))
		require.NoError(t, f.SetCellValue("Sheet1", "B1", "US_10Y"))
		require.NoError(t, f.SaveAs(path))
		require.NoError(t, f.Close())

		_, err := ReadTable(path, "Sheet1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "want Date")
	})

	t.Run("bad date", func(t *testing.T) {
		path := filepath.Join(dir, "baddate.xlsx")
		f := excelize.NewFile()
		require.NoError(t, f.SetCellValue("Sheet1", "A1", "Date"))
		require.NoError(t, f.SetCellValue("Sheet1", "B1", "US_10Y"))
		require.NoError(t, f.SetCellValue("Sheet1", "A2", "yesterday"))
		require.NoError(t, f.SetCellValue("Sheet1", "B2", 4.15))
		require.NoError(t, f.SaveAs(path))
		require.NoError(t, f.Close())

		_, err := ReadTable(path, "Sheet1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bad date")
	})
}
