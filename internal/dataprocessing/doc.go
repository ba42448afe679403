// Package dataprocessing transforms raw collected yield tables into the
// merged reporting dataset. It owns every table-shape operation between
// collection and serving: header standardization, calendar filling,
// merging, and change summaries.
//
// # Architecture
//
// The package is organized into four stages:
//
// 1. Standardizer: maps portal headers onto the instrument catalog
// 2. FillCalendar: reindexes onto a contiguous daily calendar with forward fill
// 3. Merge / JoinOnDate: combines per-source and per-batch tables on date
// 4. Summarizer: levels, basis-point deltas, and curve snapshots
//
// # Usage
//
// Standardize a raw portal export:
//
//	std := dataprocessing.NewStandardizer(logger)
//	table, err := std.Standardize(ctx, raw)
//	if err != nil {
//	    // schema drift: zero headers matched the catalog
//	}
//
// Merge the two source datasets and summarize:
//
//	merged := dataprocessing.Merge(investing, kofia)
//	summarizer := dataprocessing.NewSummarizer(logger)
//	summary, err := summarizer.BuildSummary(ctx, merged, refDate)
//
// # Data Flow
//
//	raw export → Standardizer → FillCalendar → Merge → Summarizer → reports
//
// # Missing values
//
// Cells are float64 with NaN for missing throughout. Numeric coercion is
// "invalid becomes missing", never an error; a delta with a missing side
// is nil, never zero. Forward filling only ever propagates past values
// forward, so a column that starts late keeps its leading gap.
package dataprocessing
