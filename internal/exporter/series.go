package exporter

import (
	"io"
	"strconv"

	"campuspulse/pkg/contracts/domain"
)

// SeriesHeaders is the header row of a series export. The labels are the
// ones the parser recognizes, so an export can be uploaded again unchanged.
var SeriesHeaders = []string{
	"Year", "Month", "Total Students", "Male", "Female", "Interested", "Offered",
	"Dropped", "Java Full Stack", "Python Full Stack", "Total Paid (₹)", "Total Pending (₹)",
}

// SeriesTable renders ts one record per row, in series order. Counts are
// integers and amounts carry two decimals.
func SeriesTable(ts domain.TimeSeries) Table {
	rows := make([][]string, 0, len(ts))
	for _, r := range ts {
		row := []string{r.Year, r.Month}
		for _, n := range []int{r.TotalStudents, r.Male, r.Female, r.Interested, r.Offered, r.Dropped, r.JavaFS, r.PythonFS} {
			row = append(row, strconv.Itoa(n))
		}
		row = append(row, money(r.TotalPaid), money(r.TotalPending))
		rows = append(rows, row)
	}
	return Table{Headers: SeriesHeaders, Rows: rows}
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// WriteSeries writes ts as CSV to out
func WriteSeries(out io.Writer, ts domain.TimeSeries) error {
	return WriteTable(out, SeriesTable(ts))
}

// ExportSeries writes ts to the file at path
func (w *CSVWriter) ExportSeries(path string, ts domain.TimeSeries) error {
	return w.WriteFile(path, SeriesTable(ts))
}
