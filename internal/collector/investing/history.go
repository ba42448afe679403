package investing

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

// historyDateLayout is the MM/DD/YYYY format the history endpoint
// expects in its form fields.
const historyDateLayout = "01/02/2006"

// rowDateLayout is the "Feb 16, 2026" format history rows carry.
const rowDateLayout = "Jan 2, 2006"

// HistoryFetcher replays the internal AJAX call the instrument page
// uses to populate its historical-data table.
type HistoryFetcher struct {
	client *Client
	logger *slog.Logger
}

// NewHistoryFetcher creates a fetcher over the shared client.
func NewHistoryFetcher(client *Client, logger *slog.Logger) *HistoryFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryFetcher{client: client, logger: logger}
}

// Fetch returns the daily series for one instrument id over
// [start, end], ascending by date. Rows that fail to parse are
// dropped. A well-formed response with no rows in range yields an
// empty non-nil series; a response without the expected table yields
// nil. No retry happens here; retry policy belongs to the caller.
func (h *HistoryFetcher) Fetch(ctx context.Context, id int, slug string, start, end time.Time) (domain.YieldSeries, error) {
	form := map[string]string{
		"curr_id":      strconv.Itoa(id),
		"smlID":        "",
		"st_date":      start.Format(historyDateLayout),
		"end_date":     end.Format(historyDateLayout),
		"interval_sec": "Daily",
		"sort_col":     "date",
		"sort_ord":     "ASC",
		"action":       "historical_data",
	}

	referer := h.client.PageURL(slug)
	body, status, err := h.client.PostHistory(ctx, form, referer)
	if err != nil {
		return nil, apperrors.NewTransientFetchError(h.client.historyURL(), 0, err)
	}
	if status != http.StatusOK {
		return nil, apperrors.NewTransientFetchError(h.client.historyURL(), status, nil)
	}

	series, ok := parseHistoryFragment(body)
	if !ok {
		h.logger.WarnContext(ctx, "history response carried no usable table",
			slog.String("slug", slug), slog.Int("id", id))
		return nil, nil
	}
	series.Sort()
	return series, nil
}

// parseHistoryFragment extracts dated closes from a history response.
// Needs a table with Date and Price header columns; reports false when
// either is absent.
func parseHistoryFragment(body []byte) (domain.YieldSeries, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, false
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, false
	}

	dateIdx, priceIdx := -1, -1
	table.Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		switch strings.ToLower(strings.TrimSpace(th.Text())) {
		case "date":
			if dateIdx < 0 {
				dateIdx = i
			}
		case "price":
			if priceIdx < 0 {
				priceIdx = i
			}
		}
		return dateIdx < 0 || priceIdx < 0
	})
	if dateIdx < 0 || priceIdx < 0 {
		return nil, false
	}

	series := domain.YieldSeries{}
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= dateIdx || cells.Length() <= priceIdx {
			return
		}
		date, err := time.Parse(rowDateLayout, strings.TrimSpace(cells.Eq(dateIdx).Text()))
		if err != nil {
			return
		}
		value, err := parseYield(cells.Eq(priceIdx).Text())
		if err != nil {
			return
		}
		series = append(series, domain.YieldPoint{Date: domain.Day(date), Value: value})
	})
	return series, true
}

// parseYield parses a numeric cell, tolerating thousands separators.
func parseYield(text string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	return strconv.ParseFloat(cleaned, 64)
}
