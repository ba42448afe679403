package kofia

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"bondpulse/internal/dataprocessing"
	apperrors "bondpulse/internal/errors"
	"bondpulse/pkg/contracts/domain"
)

// The portal serves exports under an .xls name, but the payload is an
// HTML table on most deployments and a real xlsx workbook on others.
// Sniff the container instead of trusting the extension.
var zipSignature = []byte("PK")

var (
	// Statistics rows the portal appends below the data.
	footerPattern = regexp.MustCompile(`최고|최저|Average|Max|Min`)
	nonDateChars  = regexp.MustCompile(`[^0-9-]`)
)

var exportDateLayouts = []string{"2006-01-02", "20060102"}

// ParseExport reads one portal export file into a yield table keyed by
// date, with the portal's raw header labels as column codes.
func ParseExport(path string, logger *slog.Logger) (*domain.YieldTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	var headers []string
	var rows [][]string
	if bytes.HasPrefix(raw, zipSignature) {
		headers, rows, err = workbookGrid(raw)
	} else {
		headers, rows, err = htmlGrid(raw)
	}
	if err != nil {
		return nil, apperrors.NewParseFailureError(filepath.Base(path), err)
	}

	table, err := tableFromGrid(headers, rows)
	if err != nil {
		return nil, apperrors.NewParseFailureError(filepath.Base(path), err)
	}
	logger.Debug("parsed portal export",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", table.Len()),
		slog.Int("columns", table.Width()))
	return table, nil
}

type exportCell struct {
	text    string
	colspan int
	rowspan int
}

// htmlGrid extracts the header and data rows of the first table in an
// HTML export. Header rows are the leading rows made of th cells; when
// the portal emits a plain td-only table, the first row is the header.
func htmlGrid(raw []byte) ([]string, [][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse export html: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("no table in export")
	}

	var headerCells [][]exportCell
	var rows [][]string
	inHeader := true
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		ths := tr.Find("th")
		if inHeader && ths.Length() > 0 {
			headerCells = append(headerCells, cellsOf(ths))
			return
		}
		inHeader = false
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	if len(headerCells) == 0 {
		if len(rows) == 0 {
			return nil, nil, fmt.Errorf("export table has no rows")
		}
		cells := make([]exportCell, len(rows[0]))
		for i, text := range rows[0] {
			cells[i] = exportCell{text: text, colspan: 1, rowspan: 1}
		}
		headerCells = [][]exportCell{cells}
		rows = rows[1:]
	}
	return flattenHeaders(headerCells), rows, nil
}

func cellsOf(sel *goquery.Selection) []exportCell {
	var cells []exportCell
	sel.Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, exportCell{
			text:    strings.TrimSpace(cell.Text()),
			colspan: intAttr(cell, "colspan"),
			rowspan: intAttr(cell, "rowspan"),
		})
	})
	return cells
}

func intAttr(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// flattenHeaders expands colspans and rowspans into a dense grid of
// header levels, then joins each column's level texts top to bottom.
// A group header over sub-headers therefore yields labels like
// "국고채권(3년)_수익률", and a spanned single-level column repeats its
// own text, matching how the exports have always been read.
func flattenHeaders(levels [][]exportCell) []string {
	width := 0
	for _, cell := range levels[0] {
		width += cell.colspan
	}
	type spanCarry struct {
		text string
		left int
	}
	carry := make(map[int]spanCarry)

	grid := make([][]string, len(levels))
	for r, cells := range levels {
		grid[r] = make([]string, width)
		next := 0
		col := 0
		for col < width {
			if c, ok := carry[col]; ok && c.left > 0 {
				grid[r][col] = c.text
				c.left--
				if c.left == 0 {
					delete(carry, col)
				} else {
					carry[col] = c
				}
				col++
				continue
			}
			var cell exportCell
			if next < len(cells) {
				cell = cells[next]
				next++
			} else {
				cell = exportCell{colspan: 1, rowspan: 1}
			}
			for i := 0; i < cell.colspan && col < width; i++ {
				grid[r][col] = cell.text
				if cell.rowspan > 1 {
					carry[col] = spanCarry{text: cell.text, left: cell.rowspan - 1}
				}
				col++
			}
		}
	}

	headers := make([]string, width)
	for col := 0; col < width; col++ {
		var parts []string
		for r := range grid {
			if grid[r][col] != "" {
				parts = append(parts, grid[r][col])
			}
		}
		headers[col] = strings.Join(parts, "_")
	}
	return headers
}

// workbookGrid extracts the first sheet of a real xlsx export.
func workbookGrid(raw []byte) ([]string, [][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open export workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("export workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("export table has no rows")
	}
	return rows[0], rows[1:], nil
}

// tableFromGrid builds the yield table: the date column anchors each
// row, statistics footer rows and rows with unparseable dates are
// dropped, every other cell goes through the shared cell coercion.
func tableFromGrid(headers []string, rows [][]string) (*domain.YieldTable, error) {
	dateIdx := -1
	for i, h := range headers {
		if strings.Contains(h, "일자") || strings.Contains(h, "Date") {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("no date column among headers %v", headers)
	}

	table := domain.NewYieldTable()
	for i, h := range headers {
		if i == dateIdx || h == "" {
			continue
		}
		table.AddColumn(h)
	}

	for _, row := range rows {
		if dateIdx >= len(row) {
			continue
		}
		dateCell := row[dateIdx]
		if footerPattern.MatchString(dateCell) {
			continue
		}
		date, ok := parseExportDate(dateCell)
		if !ok {
			continue
		}
		for i, h := range headers {
			if i == dateIdx || h == "" || i >= len(row) {
				continue
			}
			table.SetCell(date, h, dataprocessing.CoerceCell(row[i]))
		}
	}
	return table, nil
}

func parseExportDate(cell string) (time.Time, bool) {
	cleaned := nonDateChars.ReplaceAllString(cell, "")
	for _, layout := range exportDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return domain.Day(t), true
		}
	}
	return time.Time{}, false
}
