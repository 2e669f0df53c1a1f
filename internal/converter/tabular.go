package converter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fixkaro/map-data-converter/internal/csvparser"
	"github.com/fixkaro/map-data-converter/internal/jsonwriter"
	"github.com/fixkaro/map-data-converter/internal/types"
	"github.com/fixkaro/map-data-converter/internal/xlsxparser"
	"github.com/fixkaro/map-data-converter/pkg/utils"
)

// WorkbookExt selects the XLSX reader.
const WorkbookExt = ".xlsx"

// TabularOptions configures a CSV (or XLSX) to JSON conversion.
type TabularOptions struct {
	Input  string
	Output string

	// CSV holds the delimiter, encoding and rest key.
	CSV csvparser.Settings

	// Sheet selects the worksheet of an XLSX input.
	Sheet string

	// Indent is the number of spaces per level. Zero means no indentation.
	Indent int

	DryRun bool
}

// TabularConverter converts one table to a JSON array of objects.
type TabularConverter struct {
	opts   TabularOptions
	logger zerolog.Logger
}

// NewTabular creates a tabular converter.
func NewTabular(opts TabularOptions) *TabularConverter {
	return &TabularConverter{opts: opts, logger: log.Logger}
}

// Run reads the input table and writes it as JSON.
func (c *TabularConverter) Run() (*Result, error) {
	startTime := time.Now()
	result := &Result{RunID: uuid.New().String(), InputFile: c.opts.Input}
	logger := c.logger.With().Str("run_id", result.RunID).Logger()

	headers, records, err := c.read()
	if err != nil {
		return nil, err
	}

	result.Stats.Features = len(records)
	result.Stats.Columns = headers
	logger.Info().
		Str("file", c.opts.Input).
		Int("records", len(records)).
		Strs("columns", headers).
		Msg("Read table")

	result.Stats.ProcessingTime = time.Since(startTime)

	if c.opts.DryRun {
		logger.Info().Str("output", c.opts.Output).Msg("Dry run, output not written")
		return result, nil
	}

	err = utils.WriteFile(c.opts.Output, func(w io.Writer) error {
		return jsonwriter.WriteRecords(w, records, jsonwriter.RecordOptions{Indent: c.opts.Indent})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write JSON: %w", err)
	}

	result.OutputFile = c.opts.Output
	result.Stats.ProcessingTime = time.Since(startTime)
	logger.Info().Str("output", c.opts.Output).Msg("JSON saved")

	return result, nil
}

func (c *TabularConverter) read() ([]string, []*types.Record, error) {
	if strings.EqualFold(filepath.Ext(c.opts.Input), WorkbookExt) {
		data, err := xlsxparser.Parse(c.opts.Input, xlsxparser.Settings{
			Sheet:   c.opts.Sheet,
			RestKey: c.opts.CSV.RestKey,
		})
		if err != nil {
			return nil, nil, err
		}
		c.logger.Debug().Str("sheet", data.SheetName).Msg("Read worksheet")
		return data.Headers, data.Records, nil
	}

	data, err := csvparser.Parse(c.opts.Input, c.opts.CSV)
	if err != nil {
		return nil, nil, err
	}
	if data.RaggedRows > 0 {
		c.logger.Warn().Int("rows", data.RaggedRows).Msg("Rows with a different number of cells than the header")
	}
	return data.Headers, data.Records, nil
}
