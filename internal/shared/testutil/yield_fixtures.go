package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bondpulse/pkg/contracts/domain"
)

// YieldTestFixtures provides canned datasets and remote payloads for
// collector and pipeline testing.
type YieldTestFixtures struct {
	TestDataDir string
}

// NewYieldTestFixtures creates a new fixtures manager.
func NewYieldTestFixtures(testDataDir string) *YieldTestFixtures {
	return &YieldTestFixtures{
		TestDataDir: testDataDir,
	}
}

// GetTestInstrument returns the instrument most tests collect.
func (f *YieldTestFixtures) GetTestInstrument() domain.Instrument {
	return domain.Instrument{Country: "US", Tenor: 10, Slug: "u.s.-10-year-bond-yield"}
}

// GetFilledTable returns a calendar-filled two-column table covering
// 2026-02-16 through 2026-02-19.
func (f *YieldTestFixtures) GetFilledTable() *domain.YieldTable {
	t := domain.NewYieldTable()
	values := map[string][]float64{
		"US_10Y":  {4.10, 4.12, 4.15, 4.15},
		"KTB_10Y": {domain.Missing(), 2.80, 2.81, 2.82},
	}
	for code, column := range values {
		for i, v := range column {
			t.SetCell(domain.NewDay(2026, time.February, 16+i), code, v)
		}
	}
	return t
}

// GetGappyTable returns observed trading-day rows with a weekend gap,
// the shape a collector hands to the calendar filler.
func (f *YieldTestFixtures) GetGappyTable() *domain.YieldTable {
	t := domain.NewYieldTable()
	t.SetCell(domain.NewDay(2026, time.February, 13), "US_10Y", 4.08)
	t.SetCell(domain.NewDay(2026, time.February, 16), "US_10Y", 4.10)
	t.SetCell(domain.NewDay(2026, time.February, 18), "US_10Y", 4.15)
	return t
}

// GetHistoryResponseHTML returns a remote history response: the HTML
// fragment the history endpoint answers with, a table of daily rows in
// ascending date order.
func (f *YieldTestFixtures) GetHistoryResponseHTML() string {
	return `<table class="genTbl closedTbl historicalTbl" id="curr_table">
<thead>
<tr><th>Date</th><th>Price</th><th>Open</th><th>High</th><th>Low</th><th>Change %</th></tr>
</thead>
<tbody>
<tr><td class="first left bold noWrap">Feb 16, 2026</td><td>4.100</td><td>4.095</td><td>4.110</td><td>4.090</td><td>0.25%</td></tr>
<tr><td class="first left bold noWrap">Feb 17, 2026</td><td>4.120</td><td>4.100</td><td>4.125</td><td>4.098</td><td>0.49%</td></tr>
<tr><td class="first left bold noWrap">Feb 18, 2026</td><td>4.150</td><td>4.122</td><td>4.160</td><td>4.118</td><td>0.73%</td></tr>
</tbody>
</table>`
}

// GetEmptyHistoryResponseHTML returns a history response with a table
// but no data rows.
func (f *YieldTestFixtures) GetEmptyHistoryResponseHTML() string {
	return `<table id="curr_table"><thead><tr><th>Date</th><th>Price</th></tr></thead><tbody>
<tr><td colspan="2">No results found</td></tr>
</tbody></table>`
}

// GetInstrumentPageHTML returns an instrument page whose embedded page
// state carries the instrument id at the canonical location.
func (f *YieldTestFixtures) GetInstrumentPageHTML(id int) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>U.S. 10Y</title></head><body>
<div id="app">Yield overview</div>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"state":{"bondStore":{"instrumentId":%d,"name":"U.S. 10Y"}}}},"page":"/rates-bonds/[slug]"}</script>
</body></html>`, id)
}

// GetInstrumentPageScanHTML returns an instrument page where the id
// sits at a non-canonical location in the page state, reachable only
// by scanning the JSON tree.
func (f *YieldTestFixtures) GetInstrumentPageScanHTML(id int) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><body>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"layout":{"widgets":[{"kind":"chart","config":{"pairId":%d}}]}}}}</script>
</body></html>`, id)
}

// GetInstrumentPageRegexHTML returns an instrument page without a
// parseable page state; the id only appears in an inline script, the
// shape the raw-HTML fallback patterns target.
func (f *YieldTestFixtures) GetInstrumentPageRegexHTML(id int) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><body>
<script>window.bootstrap = { "pair_id": %d };</script>
<div data-test="instrument-header">U.S. 10Y</div>
</body></html>`, id)
}

// GetInstrumentPageWithoutID returns an instrument page carrying no
// usable id anywhere, the case that fails resolution and saves a
// debug snapshot.
func (f *YieldTestFixtures) GetInstrumentPageWithoutID() string {
	return `<!DOCTYPE html><html><body>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"state":{"newsStore":{"articles":[]}}}}}</script>
<p>Nothing to see here.</p>
</body></html>`
}

// GetPortalExportHTML returns a portal export file body: an HTML
// document behind a spreadsheet extension, with the date label column,
// two data rows and the statistics footer the parser must drop.
func (f *YieldTestFixtures) GetPortalExportHTML() string {
	return `<html><head><meta charset="utf-8"></head><body>
<table border="1">
<tr><td>조회일자</td><td>국고채권(1년)</td><td>국고채권(10년)</td><td>통안증권(91일)</td></tr>
<tr><td>2026/02/17</td><td>2.450</td><td>2.850</td><td>2.610</td></tr>
<tr><td>2026/02/18</td><td>2.460</td><td>2.870</td><td>2.615</td></tr>
<tr><td>최고</td><td>2.460</td><td>2.870</td><td>2.615</td></tr>
<tr><td>최저</td><td>2.450</td><td>2.850</td><td>2.610</td></tr>
<tr><td>Average</td><td>2.455</td><td>2.860</td><td>2.613</td></tr>
</table>
</body></html>`
}

// WritePortalExport writes the canned portal export under the test
// data dir and returns its path.
func (f *YieldTestFixtures) WritePortalExport(filename string) (string, error) {
	if err := os.MkdirAll(f.TestDataDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(f.TestDataDir, filename)
	if err := os.WriteFile(path, []byte(f.GetPortalExportHTML()), 0644); err != nil {
		return "", err
	}
	return path, nil
}
