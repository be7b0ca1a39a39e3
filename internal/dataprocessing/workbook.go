package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one grid of cells, already rendered to text.
type Sheet struct {
	Name string
	Rows [][]string
}

// DecodeWorkbook reads a binary spreadsheet into its sheets. CSV files are read as a
// single sheet; everything else is handed to excelize. Any failure is a KindDecode
// IngestError.
func DecodeWorkbook(name string, r io.Reader) ([]Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeError(name, fmt.Errorf("failed to read upload: %w", err))
	}
	if len(data) == 0 {
		return nil, decodeError(name, fmt.Errorf("empty file"))
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return decodeCSV(name, data)
	default:
		return decodeExcel(name, data)
	}
}

func decodeExcel(name string, data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(name, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	var sheets []Sheet
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, decodeError(name, fmt.Errorf("failed to read sheet %q: %w", sheetName, err))
		}
		sheets = append(sheets, Sheet{Name: sheetName, Rows: rows})
	}

	slog.Debug("Workbook decoded",
		slog.String("source", name),
		slog.Int("sheets", len(sheets)))

	return sheets, nil
}

func decodeCSV(name string, data []byte) ([]Sheet, error) {
	// Remove BOM if present
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// csv.Reader skips blank lines. They are restored as empty rows so the
	// grid matches what excelize returns for the same layout: a blank row
	// stops the scan and still counts toward the header window.
	var rows [][]string
	nextLine := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, decodeError(name, fmt.Errorf("failed to read CSV: %w", err))
		}

		line, _ := reader.FieldPos(0)
		for ; nextLine < line; nextLine++ {
			rows = append(rows, []string{})
		}
		rows = append(rows, record)

		last := len(record) - 1
		lastLine, _ := reader.FieldPos(last)
		nextLine = lastLine + strings.Count(record[last], "\n") + 1
	}

	sheetName := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return []Sheet{{Name: sheetName, Rows: rows}}, nil
}
