package dataprocessing

import (
	"strings"

	"campuspulse/pkg/contracts/domain"
)

// Column identifies one recognized spreadsheet column.
type Column int

const (
	ColYearMonth Column = iota
	ColYear
	ColMonth
	ColTotalStudents
	ColMale
	ColFemale
	ColInterested
	ColOffered
	ColDropped
	ColJavaFS
	ColPythonFS
	ColTotalPaid
	ColTotalPending
	numColumns
)

// HeaderTotalStudents is the label that marks a header row and the one required column.
const HeaderTotalStudents = "Total Students"

// headerScanLimit bounds how many leading rows of a sheet are searched for the header.
const headerScanLimit = 12

// columnSpec pairs a column with the exact header text it is recognized by.
type columnSpec struct {
	Column Column
	Header string
}

// recordSchema is the fixed catalog of recognized columns. Header text is matched
// by exact string equality after trimming.
var recordSchema = []columnSpec{
	{ColYearMonth, "Year-Month"},
	{ColYear, "Year"},
	{ColMonth, "Month"},
	{ColTotalStudents, HeaderTotalStudents},
	{ColMale, "Male"},
	{ColFemale, "Female"},
	{ColInterested, "Interested"},
	{ColOffered, "Offered"},
	{ColDropped, "Dropped"},
	{ColJavaFS, "Java Full Stack"},
	{ColPythonFS, "Python Full Stack"},
	{ColTotalPaid, "Total Paid (₹)"},
	{ColTotalPending, "Total Pending (₹)"},
}

// fullMonthNames maps lower-cased full month names to canonical abbreviations.
var fullMonthNames = map[string]string{
	"january":   "Jan",
	"february":  "Feb",
	"march":     "Mar",
	"april":     "Apr",
	"may":       "May",
	"june":      "Jun",
	"july":      "Jul",
	"august":    "Aug",
	"september": "Sep",
	"october":   "Oct",
	"november":  "Nov",
	"december":  "Dec",
}

// ColumnMap records, for every recognized column, whether it is present in a
// sheet and at which cell index.
type ColumnMap struct {
	index   [numColumns]int
	present [numColumns]bool
}

// ResolveColumns builds the column map for a header row.
// When a header label repeats, the first occurrence wins.
func ResolveColumns(header []string) ColumnMap {
	var cm ColumnMap
	for i, cell := range header {
		label := strings.TrimSpace(cell)
		for _, col := range recordSchema {
			if col.Header == label && !cm.present[col.Column] {
				cm.index[col.Column] = i
				cm.present[col.Column] = true
			}
		}
	}
	return cm
}

// Has reports whether the column was found in the header.
func (cm ColumnMap) Has(c Column) bool {
	return c >= 0 && c < numColumns && cm.present[c]
}

// Cell returns the trimmed cell for a column, or "" when the column is absent or
// the row is shorter than the column index.
func (cm ColumnMap) Cell(row []string, c Column) string {
	if !cm.Has(c) {
		return ""
	}
	idx := cm.index[c]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Present lists the header labels found, in catalog order.
func (cm ColumnMap) Present() []string {
	var out []string
	for _, col := range recordSchema {
		if cm.present[col.Column] {
			out = append(out, col.Header)
		}
	}
	return out
}

// normalizeMonthName maps a free-text month to a canonical abbreviation.
// Full names match case-insensitively; otherwise the first three characters
// are capitalized as a best-effort abbreviation, which may not be canonical.
func normalizeMonthName(raw string) string {
	s := strings.TrimSpace(raw)
	if abbr, ok := fullMonthNames[strings.ToLower(s)]; ok {
		return abbr
	}
	r := []rune(s)
	if len(r) > 3 {
		r = r[:3]
	}
	if len(r) == 0 {
		return ""
	}
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

// monthFromNumber maps 1-12 to the canonical abbreviation.
func monthFromNumber(n int) (string, bool) {
	if n < 1 || n > 12 {
		return "", false
	}
	return domain.Months[n-1], true
}
