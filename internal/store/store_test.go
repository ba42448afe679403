package store

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/pkg/contracts/domain"
)

func assertTablesEqual(t *testing.T, want, got *domain.YieldTable) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.Dates(), got.Dates())
	assert.Equal(t, want.Columns(), got.Columns())
	for i := range want.Dates() {
		for _, code := range want.Columns() {
			w, g := want.ValueAt(i, code), got.ValueAt(i, code)
			if domain.IsMissing(w) {
				assert.True(t, math.IsNaN(g), "row %d column %s should be missing", i, code)
			} else {
				assert.InDelta(t, w, g, 1e-9, "row %d column %s", i, code)
			}
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(nil)
	got := s.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Nil(t, got)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global_treasury.csv")

	table := domain.NewYieldTable()
	table.SetCell(domain.NewDay(2026, time.February, 17), "US_10Y", 4.12)
	table.SetCell(domain.NewDay(2026, time.February, 17), "KR_10Y", domain.Missing())
	table.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)
	table.SetCell(domain.NewDay(2026, time.February, 18), "KR_10Y", 2.87)

	s := NewStore(nil)
	require.NoError(t, s.Save(context.Background(), table, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "file should start with UTF-8 BOM")
	assert.Contains(t, string(raw), "Date,US_10Y,KR_10Y")
	assert.Contains(t, string(raw), "2026-02-17,4.12,NaN")

	got := s.Load(context.Background(), path)
	assertTablesEqual(t, table, got)
}

func TestLoadMalformed(t *testing.T) {
	s := NewStore(nil)

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"wrong header", "Timestamp,US_10Y\n2026-02-17,4.12\n"},
		{"header only date column", "Date\n2026-02-17\n"},
		{"ragged row", "Date,US_10Y\n2026-02-17,4.12,extra\n"},
		{"bad date", "Date,US_10Y\nnot-a-date,4.12\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dataset.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			assert.Nil(t, s.Load(context.Background(), path))
		})
	}
}

func TestLoadHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,US_10Y\n"), 0644))

	s := NewStore(nil)
	assert.Nil(t, s.Load(context.Background(), path))
}

func TestLoadToleratesBadCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	content := "Date,US_10Y,KR_10Y\n2026-02-17,4.12,oops\n2026-02-18,,2.87\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s := NewStore(nil)
	got := s.Load(context.Background(), path)
	require.NotNil(t, got)

	assert.InDelta(t, 4.12, got.Value(domain.NewDay(2026, time.February, 17), "US_10Y"), 1e-9)
	assert.True(t, domain.IsMissing(got.Value(domain.NewDay(2026, time.February, 17), "KR_10Y")))
	assert.True(t, domain.IsMissing(got.Value(domain.NewDay(2026, time.February, 18), "US_10Y")))
}

func TestWindow(t *testing.T) {
	stored := domain.NewYieldTable()
	stored.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)

	tests := []struct {
		name         string
		existing     *domain.YieldTable
		end          time.Time
		wantStart    time.Time
		wantUpToDate bool
	}{
		{
			name:      "resumes after last stored date",
			existing:  stored,
			end:       domain.NewDay(2026, time.February, 20),
			wantStart: domain.NewDay(2026, time.February, 19),
		},
		{
			name:         "already covers end date",
			existing:     stored,
			end:          domain.NewDay(2026, time.February, 18),
			wantStart:    domain.NewDay(2026, time.February, 19),
			wantUpToDate: true,
		},
		{
			name:      "cold start goes five years back",
			existing:  nil,
			end:       domain.NewDay(2026, time.February, 18),
			wantStart: domain.NewDay(2021, time.February, 18),
		},
		{
			name:      "empty table counts as cold start",
			existing:  domain.NewYieldTable(),
			end:       domain.NewDay(2026, time.February, 18),
			wantStart: domain.NewDay(2021, time.February, 18),
		},
		{
			name:      "leap day end has no date five years back",
			existing:  nil,
			end:       domain.NewDay(2028, time.February, 29),
			wantStart: domain.NewDay(2023, time.March, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, upToDate := Window(tt.existing, tt.end)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.end, end)
			assert.Equal(t, tt.wantUpToDate, upToDate)
		})
	}
}

func TestMergeSaveKeepsFreshRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global_treasury.csv")
	ctx := context.Background()

	existing := domain.NewYieldTable()
	existing.SetCell(domain.NewDay(2026, time.February, 17), "US_10Y", 4.10)
	existing.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 9.99) // stale
	existing.SetCell(domain.NewDay(2026, time.February, 18), "KR_10Y", 2.80)

	fresh := domain.NewYieldTable()
	fresh.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)
	fresh.SetCell(domain.NewDay(2026, time.February, 19), "US_10Y", 4.18)

	s := NewStore(nil)
	merged, err := s.MergeSave(ctx, existing, fresh, path)
	require.NoError(t, err)
	require.NotNil(t, merged)

	assert.Equal(t, 3, merged.Len())
	assert.InDelta(t, 4.10, merged.Value(domain.NewDay(2026, time.February, 17), "US_10Y"), 1e-9)
	// The fresh row replaces the stale one wholesale
	assert.InDelta(t, 4.15, merged.Value(domain.NewDay(2026, time.February, 18), "US_10Y"), 1e-9)
	assert.True(t, domain.IsMissing(merged.Value(domain.NewDay(2026, time.February, 18), "KR_10Y")))
	assert.InDelta(t, 4.18, merged.Value(domain.NewDay(2026, time.February, 19), "US_10Y"), 1e-9)

	// The file on disk matches what was returned
	reloaded := s.Load(ctx, path)
	assertTablesEqual(t, merged, reloaded)
}

func TestMergeSaveWithoutFreshLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global_treasury.csv")
	ctx := context.Background()

	existing := domain.NewYieldTable()
	existing.SetCell(domain.NewDay(2026, time.February, 17), "US_10Y", 4.10)

	s := NewStore(nil)
	require.NoError(t, s.Save(ctx, existing, path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	for name, fresh := range map[string]*domain.YieldTable{
		"nil fresh":   nil,
		"empty fresh": domain.NewYieldTable(),
	} {
		t.Run(name, func(t *testing.T) {
			merged, err := s.MergeSave(ctx, existing, fresh, path)
			require.NoError(t, err)
			assert.Same(t, existing, merged)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestMergeSaveColdStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bond_summary.csv")
	ctx := context.Background()

	fresh := domain.NewYieldTable()
	fresh.SetCell(domain.NewDay(2026, time.February, 18), "KTB_10Y", 2.87)

	s := NewStore(nil)
	merged, err := s.MergeSave(ctx, nil, fresh, path)
	require.NoError(t, err)
	assertTablesEqual(t, fresh, merged)

	reloaded := s.Load(ctx, path)
	assertTablesEqual(t, fresh, reloaded)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global_treasury.csv")

	table := domain.NewYieldTable()
	table.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)

	s := NewStore(nil)
	require.NoError(t, s.Save(context.Background(), table, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "global_treasury.csv", entries[0].Name())
}
