package domain

import (
	"fmt"
	"strings"
)

// Months is the canonical month ordering. A month's position in this slice is
// its canonical month index, used for chronological sorting and seasonal grouping.
var Months = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthIndex returns the canonical index (0-11) of a month abbreviation, or -1.
func MonthIndex(month string) int {
	for i, m := range Months {
		if m == month {
			return i
		}
	}
	return -1
}

// MonthlyRecord is one validated observation for a single (year, month) pair.
type MonthlyRecord struct {
	Year          string  `json:"year"`
	Month         string  `json:"month"`
	TotalStudents int     `json:"total_students"`
	Male          int     `json:"male"`
	Female        int     `json:"female"`
	Interested    int     `json:"interested"`
	Offered       int     `json:"offered"`
	Dropped       int     `json:"dropped"`
	JavaFS        int     `json:"java_full_stack"`
	PythonFS      int     `json:"python_full_stack"`
	TotalPaid     float64 `json:"total_paid"`
	TotalPending  float64 `json:"total_pending"`
}

// YearMonth returns the record key "{year}-{month}".
func (r MonthlyRecord) YearMonth() string {
	return r.Year + "-" + r.Month
}

// MonthIndex returns the canonical index of the record's month.
func (r MonthlyRecord) MonthIndex() int {
	return MonthIndex(r.Month)
}

// Value projects a numeric field out of the record.
func (r MonthlyRecord) Value(f Field) float64 {
	switch f {
	case FieldTotalStudents:
		return float64(r.TotalStudents)
	case FieldMale:
		return float64(r.Male)
	case FieldFemale:
		return float64(r.Female)
	case FieldInterested:
		return float64(r.Interested)
	case FieldOffered:
		return float64(r.Offered)
	case FieldDropped:
		return float64(r.Dropped)
	case FieldJavaFS:
		return float64(r.JavaFS)
	case FieldPythonFS:
		return float64(r.PythonFS)
	case FieldTotalPaid:
		return r.TotalPaid
	case FieldTotalPending:
		return r.TotalPending
	}
	return 0
}

// Field selects one numeric column of a MonthlyRecord.
type Field string

const (
	FieldTotalStudents Field = "total_students"
	FieldMale          Field = "male"
	FieldFemale        Field = "female"
	FieldInterested    Field = "interested"
	FieldOffered       Field = "offered"
	FieldDropped       Field = "dropped"
	FieldJavaFS        Field = "java_full_stack"
	FieldPythonFS      Field = "python_full_stack"
	FieldTotalPaid     Field = "total_paid"
	FieldTotalPending  Field = "total_pending"
)

// Fields lists every numeric field in column order.
var Fields = []Field{
	FieldTotalStudents, FieldMale, FieldFemale, FieldInterested, FieldOffered,
	FieldDropped, FieldJavaFS, FieldPythonFS, FieldTotalPaid, FieldTotalPending,
}

var fieldLabels = map[Field]string{
	FieldTotalStudents: "Total Students",
	FieldMale:          "Male",
	FieldFemale:        "Female",
	FieldInterested:    "Interested",
	FieldOffered:       "Offered",
	FieldDropped:       "Dropped",
	FieldJavaFS:        "Java Full Stack",
	FieldPythonFS:      "Python Full Stack",
	FieldTotalPaid:     "Total Paid",
	FieldTotalPending:  "Total Pending",
}

// Label returns a human readable name for the field.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// IsMonetary reports whether the field holds currency amounts.
func (f Field) IsMonetary() bool {
	return f == FieldTotalPaid || f == FieldTotalPending
}

// ParseField resolves a field from its identifier, accepting hyphens and any case.
func ParseField(s string) (Field, error) {
	key := Field(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := fieldLabels[key]; ok {
		return key, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// TimeSeries is the chronologically ordered sequence of records produced by one parse.
// It is never mutated after construction.
type TimeSeries []MonthlyRecord

// Len returns the number of records.
func (ts TimeSeries) Len() int { return len(ts) }

// Values returns the field's values across the full series in stored order.
func (ts TimeSeries) Values(f Field) []float64 {
	out := make([]float64, len(ts))
	for i, r := range ts {
		out[i] = r.Value(f)
	}
	return out
}

// Keys returns the yearMonth key of every record in stored order.
func (ts TimeSeries) Keys() []string {
	out := make([]string, len(ts))
	for i, r := range ts {
		out[i] = r.YearMonth()
	}
	return out
}

// Last returns the most recent record.
func (ts TimeSeries) Last() (MonthlyRecord, bool) {
	if len(ts) == 0 {
		return MonthlyRecord{}, false
	}
	return ts[len(ts)-1], true
}
