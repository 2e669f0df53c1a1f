// =============================================================================
// Map Data Converter - XLSX Parser Module
// =============================================================================
//
// This module reads a worksheet of an XLSX workbook into the same ordered
// records the CSV parser produces, so that spreadsheet exports can be
// converted to JSON without first saving them as CSV.
//
// PARSING RULES:
//   - The first non-empty row of the sheet is the header row
//   - Cells are read as their formatted string values
//   - Empty cells inside the header width are empty strings (a worksheet has
//     no ragged rows, excelize only trims trailing blanks)
//   - Cells beyond the header width are collected under the rest key
//   - Completely empty rows are skipped
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/fixkaro/map-data-converter/internal/csvparser"
	"github.com/fixkaro/map-data-converter/internal/types"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings contains settings for reading a workbook.
type Settings struct {
	// Sheet is the worksheet to read. When empty the first sheet is used.
	Sheet string

	// RestKey is the key for cells beyond the header width.
	// Default: "null"
	RestKey string
}

// =============================================================================
// SHEET DATA STRUCTURE
// =============================================================================

// SheetData represents the parsed worksheet.
type SheetData struct {
	// Headers contains the column headers.
	Headers []string

	// Records contains one ordered record per data row.
	Records []*types.Record

	// SourceFile is the path to the workbook.
	SourceFile string

	// SheetName is the worksheet that was read.
	SheetName string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads one worksheet of an XLSX file.
//
// PARAMETERS:
//   - filePath: The path to the XLSX file.
//   - settings: The sheet selection settings.
//
// RETURNS:
//   - A pointer to the SheetData struct.
//   - A *types.NotFoundError if the file or the sheet does not exist.
func Parse(filePath string, settings Settings) (*SheetData, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, &types.NotFoundError{Kind: "XLSX file", Path: filePath, Err: err}
	}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := settings.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, &types.NotFoundError{Kind: "worksheet", Path: filePath + "#" + sheetName}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	restKey := settings.RestKey
	if restKey == "" {
		restKey = csvparser.DefaultSettings().RestKey
	}

	data := &SheetData{
		SourceFile: filePath,
		SheetName:  sheetName,
		Records:    []*types.Record{},
	}

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		if data.Headers == nil {
			data.Headers = row
			continue
		}

		data.Records = append(data.Records, csvparser.BuildRecord(data.Headers, padRow(row, len(data.Headers)), restKey))
	}

	return data, nil
}

// padRow extends row with empty strings up to width.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
