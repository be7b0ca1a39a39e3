package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColumns(t *testing.T) {
	cm := ResolveColumns([]string{"", "Month", " Total Students ", "Year", "Male", "Total Paid (₹)", "Male"})

	assert.True(t, cm.Has(ColTotalStudents))
	assert.True(t, cm.Has(ColYear))
	assert.False(t, cm.Has(ColYearMonth))
	assert.False(t, cm.Has(ColTotalPending))

	row := []string{"x", " Mar ", "12", "2024", "5", "1,000", "9"}
	assert.Equal(t, "Mar", cm.Cell(row, ColMonth))
	assert.Equal(t, "5", cm.Cell(row, ColMale), "first occurrence wins")
	assert.Equal(t, "", cm.Cell(row, ColYearMonth))
	assert.Equal(t, "", cm.Cell([]string{"x"}, ColTotalPaid), "short rows yield empty cells")

	assert.Equal(t, []string{"Year", "Month", "Total Students", "Male", "Total Paid (₹)"}, cm.Present())
}

func TestNormalizeMonthName(t *testing.T) {
	tests := map[string]string{
		"January":  "Jan",
		"DECEMBER": "Dec",
		" june ":   "Jun",
		"sept":     "Sep",
		"aUG":      "Aug",
		"Mar":      "Mar",
		"xy":       "Xy",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeMonthName(in), "input %q", in)
	}
}

func TestMonthFromNumber(t *testing.T) {
	m, ok := monthFromNumber(1)
	assert.True(t, ok)
	assert.Equal(t, "Jan", m)

	m, ok = monthFromNumber(12)
	assert.True(t, ok)
	assert.Equal(t, "Dec", m)

	_, ok = monthFromNumber(0)
	assert.False(t, ok)
	_, ok = monthFromNumber(13)
	assert.False(t, ok)
}

func TestParseNumber(t *testing.T) {
	v, ok := parseNumber("₹ 1,234.50")
	assert.True(t, ok)
	assert.Equal(t, 1234.5, v)

	_, ok = parseNumber("NaN")
	assert.False(t, ok)
	_, ok = parseNumber("")
	assert.False(t, ok)

	assert.Equal(t, 0, parseCount("-3"))
	assert.Equal(t, 4, parseCount("3.6"))
	assert.Equal(t, 0.0, parseAmount("pending"))
}
