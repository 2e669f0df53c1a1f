// =============================================================================
// Map Data Converter - Shapefile Converter Module
// =============================================================================
//
// This module orchestrates the shapefile to GeoJSON conversion for one
// directory of shapefile components.
//
// CONVERSION PIPELINE:
//   1. Discover the .shp file in the directory
//   2. Check that the .shx and .dbf companions exist
//   3. Load geometries and attributes
//   4. Assign feature names
//   5. Reproject to WGS84 when the source CRS differs
//   6. Write the GeoJSON FeatureCollection
//
// Nothing is written unless steps 1 to 5 succeed.
//
// =============================================================================

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

	"github.com/fixkaro/map-data-converter/internal/jsonwriter"
	"github.com/fixkaro/map-data-converter/internal/shapefile"
	"github.com/fixkaro/map-data-converter/internal/types"
	"github.com/fixkaro/map-data-converter/internal/validation"
	"github.com/fixkaro/map-data-converter/pkg/utils"
)

// Reprojector transforms a feature set to WGS84 in place.
type Reprojector interface {
	Reproject(fs *types.FeatureSet) error
}

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// ShapefileOptions configures a shapefile conversion.
type ShapefileOptions struct {
	// Dir is the directory searched for the .shp file.
	Dir string

	// Output is the GeoJSON file to write.
	Output string

	// Names, when not empty, must hold one name per feature.
	Names []string

	// Encoding overrides the attribute table code page.
	Encoding string

	// SourceCRS is assumed when there is no .prj file.
	SourceCRS string

	// WriteCRS and Indent are passed to the GeoJSON writer.
	WriteCRS bool
	Indent   int

	// DryRun runs every step except writing the output.
	DryRun bool
}

// Result represents the outcome of a conversion.
type Result struct {
	// RunID identifies the run in the logs.
	RunID string

	// InputFile is the file that was read.
	InputFile string

	// OutputFile is the file that was written. Empty on a dry run.
	OutputFile string

	// Stats contains processing statistics.
	Stats Stats
}

// Stats contains statistics about a conversion.
type Stats struct {
	// Features is the number of features (or records) converted.
	Features int

	// Columns lists the input columns in order.
	Columns []string

	// NameSource tells where the feature names came from.
	NameSource shapefile.NameSource

	// Reprojected is true when coordinates were transformed.
	Reprojected bool

	// Bounds is the extent of the output, as [minX, minY, maxX, maxY].
	Bounds []float64

	// ProcessingTime is the time taken by the conversion.
	ProcessingTime time.Duration
}

// =============================================================================
// SHAPEFILE CONVERTER
// =============================================================================

// ShapefileConverter converts a shapefile to GeoJSON.
type ShapefileConverter struct {
	opts        ShapefileOptions
	reprojector Reprojector
	logger      zerolog.Logger
}

// NewShapefile creates a converter. reprojector is only used when the source
// CRS is neither missing nor WGS84.
func NewShapefile(opts ShapefileOptions, reprojector Reprojector) *ShapefileConverter {
	return &ShapefileConverter{
		opts:        opts,
		reprojector: reprojector,
		logger:      log.Logger,
	}
}

// Run executes the conversion pipeline.
func (c *ShapefileConverter) Run() (*Result, error) {
	startTime := time.Now()
	result := &Result{RunID: uuid.New().String()}
	logger := c.logger.With().Str("run_id", result.RunID).Logger()

	// =========================================================================
	// STEP 1: DISCOVER
	// =========================================================================

	shpPath, err := shapefile.Discover(c.opts.Dir)
	if err != nil {
		return nil, err
	}
	result.InputFile = shpPath

	// =========================================================================
	// STEP 2: COMPANIONS
	// =========================================================================

	if err := validation.CheckCompanions(shpPath); err != nil {
		return nil, err
	}

	logger.Info().Str("file", shpPath).Msg("Reading shapefile")

	// =========================================================================
	// STEP 3: LOAD
	// =========================================================================

	fs, err := shapefile.Load(shpPath, shapefile.LoadOptions{
		Encoding:  c.opts.Encoding,
		SourceCRS: c.opts.SourceCRS,
	})
	if err != nil {
		return nil, err
	}

	result.Stats.Features = fs.Len()
	result.Stats.Columns = fs.Columns()
	logger.Info().
		Int("features", fs.Len()).
		Strs("columns", fs.Columns()).
		Msg("Loaded shapefile")

	// =========================================================================
	// STEP 4: NAMES
	// =========================================================================

	source, err := shapefile.AssignNames(fs, c.opts.Names)
	if err != nil {
		return nil, err
	}
	result.Stats.NameSource = source
	logger.Debug().Str("source", string(source)).Msg("Assigned feature names")

	// =========================================================================
	// STEP 5: REPROJECT
	// =========================================================================

	switch {
	case fs.CRS == nil:
		logger.Warn().Msg("CRS not found in shapefile, assuming EPSG:4326")
	case fs.CRS.IsWGS84():
		logger.Debug().Str("crs", fs.CRS.String()).Msg("Already in WGS84")
	default:
		if c.reprojector == nil {
			return nil, fmt.Errorf("no reprojector available for %s", fs.CRS)
		}
		from := fs.CRS.String()
		if err := c.reprojector.Reproject(fs); err != nil {
			return nil, fmt.Errorf("failed to reproject: %w", err)
		}
		result.Stats.Reprojected = true
		logger.Info().Str("from", from).Str("to", types.WGS84).Msg("Reprojected features")
	}

	if b := fs.Bounds(); b != nil {
		result.Stats.Bounds = []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
		logger.Info().Floats64("bounds", result.Stats.Bounds).Msg("Feature extent")
	}

	// =========================================================================
	// STEP 6: WRITE
	// =========================================================================

	result.Stats.ProcessingTime = time.Since(startTime)

	if c.opts.DryRun {
		logger.Info().Str("output", c.opts.Output).Msg("Dry run, output not written")
		return result, nil
	}

	writeOpts := jsonwriter.GeoJSONOptions{
		Name:     layerName(c.opts.Output),
		WriteCRS: c.opts.WriteCRS,
		Indent:   c.opts.Indent,
	}
	err = utils.WriteFile(c.opts.Output, func(w io.Writer) error {
		return jsonwriter.WriteFeatureCollection(w, fs, writeOpts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write GeoJSON: %w", err)
	}

	result.OutputFile = c.opts.Output
	result.Stats.ProcessingTime = time.Since(startTime)

	event := logger.Info().
		Str("output", c.opts.Output).
		Dur("elapsed", result.Stats.ProcessingTime)
	if size, err := utils.GetFileSize(c.opts.Output); err == nil {
		event = event.Int64("bytes", size)
	}
	event.Msg("GeoJSON saved")

	return result, nil
}

// layerName is the output file name without its extension.
func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
