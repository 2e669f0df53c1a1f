// =============================================================================
// Map Data Converter - CSV Parser Module
// =============================================================================
//
// This module reads a CSV file into an ordered sequence of records, one per
// data row, each mapping the header names to the row's cell strings.
//
// PARSING RULES:
//   - The first row is the header row
//   - Row order and column order are preserved
//   - Cell values are kept verbatim (no trimming, no type inference)
//   - Ragged rows are accepted:
//       short rows -> missing trailing columns are null
//       long rows  -> extra cells are collected under the rest key
//   - Blank lines are skipped
//   - A leading UTF-8 byte order mark is dropped
//   - Input that is not valid in its encoding is an error
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/fixkaro/map-data-converter/internal/types"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings contains settings for parsing CSV files.
type Settings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" (pipe), "\t" or "tab" (tab), ";"
	// Default: ","
	Delimiter string

	// Encoding is the character encoding of the file, as a WHATWG label.
	// Common values: "utf-8", "windows-1252", "iso-8859-1"
	// Default: "utf-8"
	Encoding string

	// RestKey is the key under which cells beyond the header width are
	// collected as a string array.
	// Default: "null"
	RestKey string
}

// DefaultSettings returns the default CSV settings.
func DefaultSettings() Settings {
	return Settings{
		Delimiter: ",",
		Encoding:  "utf-8",
		RestKey:   "null",
	}
}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the column headers from the first row.
	Headers []string

	// Records contains one ordered record per data row.
	Records []*types.Record

	// SourceFile is the path to the source CSV file.
	SourceFile string

	// RaggedRows counts data rows whose width differs from the header.
	RaggedRows int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - A *types.NotFoundError if the file does not exist, or a wrapped read
//     error.
func Parse(filePath string, settings Settings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, &types.NotFoundError{Kind: "CSV file", Path: filePath, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath

	return data, nil
}

// ParseReader parses CSV content from r.
func ParseReader(r io.Reader, settings Settings) (*CSVData, error) {
	reader, err := decodingReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(skipBOM(reader))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	// An empty file has no header and yields no records.
	if len(allRows) == 0 {
		return &CSVData{Records: []*types.Record{}}, nil
	}

	restKey := settings.RestKey
	if restKey == "" {
		restKey = DefaultSettings().RestKey
	}

	data := &CSVData{
		Headers: allRows[0],
		Records: make([]*types.Record, 0, len(allRows)-1),
	}

	for _, row := range allRows[1:] {
		if len(row) != len(data.Headers) {
			data.RaggedRows++
		}
		data.Records = append(data.Records, BuildRecord(data.Headers, row, restKey))
	}

	return data, nil
}

// BuildRecord maps one row onto the headers.
//
// Missing trailing cells become nil. Cells beyond the header width are
// collected, in order, as a []string under restKey. When a header name
// repeats, the later cell wins and the key keeps its first position.
func BuildRecord(headers, row []string, restKey string) *types.Record {
	record := types.NewRecord(len(headers))

	for i, header := range headers {
		if i < len(row) {
			record.Set(header, row[i])
		} else {
			record.Set(header, nil)
		}
	}

	if len(row) > len(headers) {
		extra := make([]string, len(row)-len(headers))
		copy(extra, row[len(headers):])
		record.Set(restKey, extra)
	}

	return record
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if r := []rune(settings.Delimiter); len(r) > 0 {
			reader.Comma = r[0]
		} else {
			reader.Comma = ','
		}
	}

	// Rows may have any number of fields; see BuildRecord.
	reader.FieldsPerRecord = -1

	// Allow quotes that don't follow strict CSV rules.
	reader.LazyQuotes = true
}

// decodingReader wraps r so that it yields UTF-8. UTF-8 input is only
// validated; a malformed byte sequence fails the read.
func decodingReader(r io.Reader, label string) (io.Reader, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || label == "utf-8" || label == "utf8" {
		return transform.NewReader(r, encoding.UTF8Validator), nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}

	return transform.NewReader(r, enc.NewDecoder()), nil
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		br.Discard(3)
	}
	return br
}
