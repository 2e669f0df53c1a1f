// =============================================================================
// Map Data Converter - JSON Writer Module
// =============================================================================
//
// This module serializes the in-memory results of both converters:
//   - Records     -> JSON array of objects (CSV converter)
//   - FeatureSet  -> GeoJSON FeatureCollection (shapefile converter)
//
// OUTPUT RULES:
//   - Keys keep the column order of the source (types.Record)
//   - HTML characters and non-ASCII text are written as-is, UTF-8 encoded
//   - The caller owns the io.Writer; this package never opens files
//
// =============================================================================

package jsonwriter

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/fixkaro/map-data-converter/internal/types"
)

// =============================================================================
// RECORD OPTIONS
// =============================================================================

// RecordOptions contains options for record array output.
type RecordOptions struct {
	// Indent is the number of spaces per nesting level. Zero writes compact
	// JSON.
	// Default: 4
	Indent int
}

// DefaultRecordOptions returns the default options for record output.
func DefaultRecordOptions() RecordOptions {
	return RecordOptions{Indent: 4}
}

// =============================================================================
// RECORD OUTPUT
// =============================================================================

// WriteRecords writes records as a JSON array of objects.
//
// The output has no trailing newline. An empty slice is written as "[]".
func WriteRecords(w io.Writer, records []*types.Record, opts RecordOptions) error {
	if records == nil {
		records = []*types.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if opts.Indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", opts.Indent))
	}

	if err := enc.Encode(records); err != nil {
		return err
	}

	_, err := w.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return err
}
