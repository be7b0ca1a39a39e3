package dataprocessing

import (
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"campuspulse/pkg/contracts/domain"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// RowAction is the outcome of classifying one data row.
type RowAction int

const (
	// RowAccept appends the row's record to the sheet accumulator.
	RowAccept RowAction = iota
	// RowStop ends the scan of the sheet; the row marks a trailing summary block.
	RowStop
	// RowSkip ignores a stray repeated header.
	RowSkip
	// RowReject ignores a row that failed extraction or validation.
	RowReject
)

func (a RowAction) String() string {
	switch a {
	case RowAccept:
		return "accept"
	case RowStop:
		return "stop"
	case RowSkip:
		return "skip"
	case RowReject:
		return "reject"
	}
	return "unknown"
}

// RowResult carries a row classification and, for RowAccept, its record.
type RowResult struct {
	Action RowAction
	Record domain.MonthlyRecord
	Reason string
}

// ParseResult describes the sheet the parser committed to.
type ParseResult struct {
	Series    domain.TimeSeries
	Sheet     string
	HeaderRow int
	Accepted  int
	Rejected  int
	Skipped   int
}

// Parser turns decoded sheets into a validated, chronologically sorted TimeSeries.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "record_parser"))}
}

// Parse is a convenience wrapper around Parser.Parse using the default logger.
func Parse(sheets []Sheet) (domain.TimeSeries, error) {
	res, err := NewParser(nil).Parse(sheets)
	if err != nil {
		return nil, err
	}
	return res.Series, nil
}

// Parse tries sheets in order and commits to the first one yielding at least one
// valid record; later sheets are never examined.
func (p *Parser) Parse(sheets []Sheet) (*ParseResult, error) {
	for _, sheet := range sheets {
		res, ok := p.parseSheet(sheet)
		if !ok {
			continue
		}
		if len(res.Series) == 0 {
			p.logger.Debug("Sheet yielded no valid records",
				slog.String("sheet", sheet.Name),
				slog.Int("rejected", res.Rejected))
			continue
		}

		sortChronologically(res.Series)

		p.logger.Info("Sheet parsed",
			slog.String("sheet", res.Sheet),
			slog.Int("header_row", res.HeaderRow),
			slog.Int("accepted", res.Accepted),
			slog.Int("rejected", res.Rejected),
			slog.Int("skipped", res.Skipped))
		return res, nil
	}

	return nil, &IngestError{Kind: KindNoData, Sheets: len(sheets)}
}

// parseSheet scans one sheet. ok is false when the sheet has no usable header.
func (p *Parser) parseSheet(sheet Sheet) (*ParseResult, bool) {
	headerRow := findHeaderRow(sheet.Rows)
	if headerRow < 0 {
		p.logger.Debug("No header row found", slog.String("sheet", sheet.Name))
		return nil, false
	}

	cm := ResolveColumns(sheet.Rows[headerRow])
	if !cm.Has(ColTotalStudents) {
		return nil, false
	}

	p.logger.Debug("Header resolved",
		slog.String("sheet", sheet.Name),
		slog.Int("row", headerRow),
		slog.Any("columns", cm.Present()))

	res := &ParseResult{Sheet: sheet.Name, HeaderRow: headerRow}

scan:
	for i := headerRow + 1; i < len(sheet.Rows); i++ {
		rr := ClassifyRow(sheet.Rows[i], cm)
		switch rr.Action {
		case RowStop:
			p.logger.Debug("Summary sentinel reached",
				slog.String("sheet", sheet.Name),
				slog.Int("row", i))
			break scan
		case RowSkip:
			res.Skipped++
		case RowReject:
			res.Rejected++
			p.logger.Debug("Row rejected",
				slog.String("sheet", sheet.Name),
				slog.Int("row", i),
				slog.String("reason", rr.Reason))
		case RowAccept:
			res.Accepted++
			res.Series = append(res.Series, rr.Record)
		}
	}

	return res, true
}

// findHeaderRow returns the index of the first row among the first twelve whose
// trimmed cells include "Total Students", or -1.
func findHeaderRow(rows [][]string) int {
	limit := min(len(rows), headerScanLimit)
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if strings.TrimSpace(cell) == HeaderTotalStudents {
				return i
			}
		}
	}
	return -1
}

// ClassifyRow decides what to do with one data row below the header.
func ClassifyRow(row []string, cm ColumnMap) RowResult {
	first := ""
	if len(row) > 0 {
		first = strings.ToUpper(strings.TrimSpace(row[0]))
	}

	switch {
	case first == "", first == "TOTAL", first == "NAN", strings.HasPrefix(first, "ANNUAL"):
		return RowResult{Action: RowStop, Reason: "summary sentinel"}
	case first == "YEAR":
		return RowResult{Action: RowSkip, Reason: "repeated header"}
	}

	year, month, ok := extractYearMonth(row, cm)
	if !ok {
		return RowResult{Action: RowReject, Reason: "no year/month"}
	}
	if !yearPattern.MatchString(year) {
		return RowResult{Action: RowReject, Reason: "invalid year " + strconv.Quote(year)}
	}
	if domain.MonthIndex(month) < 0 {
		return RowResult{Action: RowReject, Reason: "invalid month " + strconv.Quote(month)}
	}

	students, ok := parseNumber(cm.Cell(row, ColTotalStudents))
	if !ok || math.Round(students) <= 0 {
		return RowResult{Action: RowReject, Reason: "total students not positive"}
	}

	return RowResult{
		Action: RowAccept,
		Record: domain.MonthlyRecord{
			Year:          year,
			Month:         month,
			TotalStudents: int(math.Round(students)),
			Male:          parseCount(cm.Cell(row, ColMale)),
			Female:        parseCount(cm.Cell(row, ColFemale)),
			Interested:    parseCount(cm.Cell(row, ColInterested)),
			Offered:       parseCount(cm.Cell(row, ColOffered)),
			Dropped:       parseCount(cm.Cell(row, ColDropped)),
			JavaFS:        parseCount(cm.Cell(row, ColJavaFS)),
			PythonFS:      parseCount(cm.Cell(row, ColPythonFS)),
			TotalPaid:     parseAmount(cm.Cell(row, ColTotalPaid)),
			TotalPending:  parseAmount(cm.Cell(row, ColTotalPending)),
		},
	}
}

// extractYearMonth prefers a combined "Year-Month" key and falls back to split
// Year and Month columns.
func extractYearMonth(row []string, cm ColumnMap) (year, month string, ok bool) {
	if ym := cm.Cell(row, ColYearMonth); strings.Contains(ym, "-") {
		parts := strings.SplitN(ym, "-", 3)
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return "", "", false
		}
		m, valid := monthFromNumber(n)
		if !valid {
			return "", "", false
		}
		return strings.TrimSpace(parts[0]), m, true
	}

	if cm.Has(ColYear) && cm.Has(ColMonth) {
		y := cm.Cell(row, ColYear)
		m := cm.Cell(row, ColMonth)
		if y == "" || m == "" {
			return "", "", false
		}
		return y, normalizeMonthName(m), true
	}

	return "", "", false
}

// parseNumber reads a numeric cell, tolerating thousands separators and the rupee sign.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseCount defaults missing, non-numeric and negative cells to 0.
func parseCount(s string) int {
	v, ok := parseNumber(s)
	if !ok || v < 0 {
		return 0
	}
	return int(math.Round(v))
}

// parseAmount defaults missing, non-numeric and negative cells to 0.
func parseAmount(s string) float64 {
	v, ok := parseNumber(s)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// sortChronologically orders records by (year, canonical month index). The sort is
// stable so duplicate months keep their source order.
func sortChronologically(ts domain.TimeSeries) {
	slices.SortStableFunc(ts, func(a, b domain.MonthlyRecord) int {
		if c := strings.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return a.MonthIndex() - b.MonthIndex()
	})
}
