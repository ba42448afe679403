// Package api contains API contract definitions for the yield
// collection service. Version v1 is the current stable API version.
package api

// DateRangeRequest represents a date range in requests
type DateRangeRequest struct {
	From string `json:"from" query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// CollectRequest represents a request to start a collection run.
// Omitted dates fall back to the incremental window: last stored date
// plus one day through yesterday.
type CollectRequest struct {
	FromDate string   `json:"from_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string   `json:"to_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Sources  []string `json:"sources,omitempty" validate:"omitempty,dive,oneof=investing kofia"`
	Headless *bool    `json:"headless,omitempty"`
}

// SummaryRequest represents a change-summary query
type SummaryRequest struct {
	Date string `json:"date" query:"date" validate:"omitempty,datetime=2006-01-02"`
}

// CurveRequest represents a yield-curve snapshot query
type CurveRequest struct {
	Country string `json:"country" param:"country" validate:"required,len=2"`
	Date    string `json:"date" query:"date" validate:"omitempty,datetime=2006-01-02"`
}
