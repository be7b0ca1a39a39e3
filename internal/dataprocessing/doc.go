// Package dataprocessing turns uploaded institutional spreadsheets into a canonical
// monthly TimeSeries.
//
// # Architecture
//
// The package is organized into three parts:
//
// 1. Workbook: decodes a binary XLSX or CSV upload into named grids of text cells
// 2. Parser: locates the header row, resolves the recognized column catalog and
// classifies every row below it
// 3. Summarizer: headline figures, per-year totals and the year-by-month grid
//
// # Usage
//
//	sheets, err := dataprocessing.DecodeWorkbook("records.xlsx", file)
//	if err != nil {
//	    return err // KindDecode
//	}
//	res, err := dataprocessing.NewParser(logger).Parse(sheets)
//	if err != nil {
//	    return err // KindNoData
//	}
//
// # Row scanning
//
// Scanning starts right after the header row. The first row whose first cell is
// TOTAL, ANNUAL..., NAN or empty ends the scan; it marks the annual summary block
// that some exports append below the monthly rows. Rows whose first cell is YEAR
// are repeated headers and are skipped without ending the scan.
//
// The parser commits to the first sheet that yields at least one valid record.
//
// # Duplicates
//
// Repeated (year, month) pairs are not merged. Both records survive in source
// order and per-year aggregates count them twice.
package dataprocessing
