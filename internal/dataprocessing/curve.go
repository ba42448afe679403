package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"bondpulse/internal/catalog"
	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

// BuildCurve returns one country's yield curve at refDate together with
// the levels 7 and 30 calendar days earlier and the basis-point moves
// against both. Tenors whose column is absent from the table are
// skipped; a country with no columns at all is not found.
func (s *Summarizer) BuildCurve(ctx context.Context, t *domain.YieldTable, country string, refDate time.Time) (*domain.CurveSnapshot, error) {
	if t == nil || t.IsEmpty() {
		return nil, apperrors.ErrNoDataset
	}

	refDate = domain.Day(refDate)
	current := ReferenceRow(t, refDate)
	weekAgo := ReferenceRow(t, refDate.AddDate(0, 0, -7))
	monthAgo := ReferenceRow(t, refDate.AddDate(0, 0, -30))

	var points []domain.CurvePoint
	for _, tenor := range catalog.CurveTenors() {
		code, ok := ResolveColumn(t, country, tenor)
		if !ok {
			continue
		}
		points = append(points, domain.CurvePoint{
			Tenor:        tenor,
			Current:      domain.Float(current[code]),
			WeekAgo:      domain.Float(weekAgo[code]),
			MonthAgo:     domain.Float(monthAgo[code]),
			DeltaWeekBp:  basisPointDelta(current[code], weekAgo[code]),
			DeltaMonthBp: basisPointDelta(current[code], monthAgo[code]),
		})
	}

	if len(points) == 0 {
		return nil, apperrors.NewNotFoundError("country " + country)
	}

	s.logger.DebugContext(ctx, "built curve snapshot",
		slog.String("country", country),
		slog.Time("reference_date", refDate),
		slog.Int("tenors", len(points)))

	return &domain.CurveSnapshot{
		Country:       country,
		ReferenceDate: refDate,
		Points:        points,
	}, nil
}
