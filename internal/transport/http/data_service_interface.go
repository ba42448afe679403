package http

import (
	"context"
	"time"

	"bondpulse/internal/files"
	"bondpulse/pkg/contracts/domain"
)

// DataServiceInterface defines the read-side operations the data
// handler serves. Views are rebuilt from the stored datasets on every
// call, so a zero time means "default to the stored boundary".
type DataServiceInterface interface {
	Yields(ctx context.Context, from, to time.Time) (*domain.YieldTable, error)
	Summary(ctx context.Context, refDate time.Time) (*domain.ChangeSummary, error)
	Curve(ctx context.Context, country string, refDate time.Time) (*domain.CurveSnapshot, error)
	Curves(ctx context.Context, refDate time.Time) ([]*domain.CurveSnapshot, error)
	ExportWorkbook(ctx context.Context) (string, error)
	ExportReports(ctx context.Context, refDate time.Time) ([]string, error)
	LatestWorkbook() (files.FileInfo, bool)
}
