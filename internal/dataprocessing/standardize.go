package dataprocessing

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"bondpulse/internal/catalog"
	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

// Standardizer maps source-specific column headers onto the canonical
// instrument catalog. Headers that match no rule are dropped, never
// guessed; a table where nothing matches is schema drift and a hard
// error, because silently producing an empty dataset would be mistaken
// for an empty date range downstream.
type Standardizer struct {
	logger *slog.Logger
	rules  []catalog.LabelRule
}

// NewStandardizer creates a standardizer over the catalog rule table.
func NewStandardizer(logger *slog.Logger) *Standardizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Standardizer{
		logger: logger,
		rules:  catalog.BondLabelRules(),
	}
}

// Standardize renames raw's columns to catalog codes, drops unmatched
// headers with a logged list, orders columns by catalog precedence, and
// calendar-fills the result. When two headers map to the same code the
// first non-missing value per date wins, in source column order.
// Returns NoRecognizedColumnsError when zero headers match.
func (s *Standardizer) Standardize(ctx context.Context, raw *domain.YieldTable) (*domain.YieldTable, error) {
	if raw == nil || raw.Width() == 0 {
		return nil, apperrors.NewNoRecognizedColumnsError(nil)
	}

	headers := raw.Columns()
	dates := raw.Dates()

	out := domain.NewYieldTable()
	var dropped []string
	for _, header := range headers {
		code, ok := s.MapHeader(header)
		if !ok {
			dropped = append(dropped, header)
			continue
		}
		out.AddColumn(code)
		for i, d := range dates {
			v := raw.ValueAt(i, header)
			if domain.IsMissing(v) {
				continue
			}
			if domain.IsMissing(out.Value(d, code)) {
				out.SetCell(d, code, v)
			}
		}
	}

	if out.Width() == 0 {
		s.logger.ErrorContext(ctx, "no column headers matched the instrument catalog",
			slog.Int("header_count", len(headers)),
			slog.Any("headers", headers))
		return nil, apperrors.NewNoRecognizedColumnsError(headers)
	}

	if len(dropped) > 0 {
		s.logger.WarnContext(ctx, "dropped unrecognized columns",
			slog.Int("dropped_count", len(dropped)),
			slog.Any("headers", dropped))
	}

	out = out.SelectColumns(catalog.SortPortalColumns(out.Columns()))

	s.logger.InfoContext(ctx, "standardized table",
		slog.Int("columns_in", len(headers)),
		slog.Int("columns_out", out.Width()),
		slog.Int("rows", out.Len()))

	return FillCalendar(out), nil
}

// MapHeader resolves one raw header to its catalog code. Whitespace is
// stripped before matching because the portal pads labels unevenly.
func (s *Standardizer) MapHeader(header string) (string, bool) {
	stripped := strings.Join(strings.Fields(header), "")
	if stripped == "" {
		return "", false
	}
	for _, rule := range s.rules {
		if code, ok := rule.Apply(stripped); ok {
			return code, true
		}
	}
	return "", false
}

// CoerceCell parses a raw cell into a float64 yield value. Invalid
// input becomes missing, never an error; thousands separators and
// trailing percent signs are tolerated.
func CoerceCell(raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" || v == "-" {
		return domain.Missing()
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return domain.Missing()
	}
	return f
}
