package shapefile

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/fixkaro/map-data-converter/internal/types"
	"github.com/fixkaro/map-data-converter/pkg/utils"
)

// =============================================================================
// LOAD OPTIONS
// =============================================================================

// LoadOptions controls how a shapefile is read.
type LoadOptions struct {
	// Encoding overrides the code page of the attribute table. When empty the
	// .cpg companion is used, and UTF-8 when there is none.
	Encoding string

	// SourceCRS is used when the shapefile has no .prj companion. It can be
	// anything PROJ accepts, e.g. "EPSG:32644".
	SourceCRS string
}

// =============================================================================
// LOADER
// =============================================================================

// Load reads the geometry, attributes and CRS of the shapefile at shpPath.
//
// The required companions must already have been checked; any error from the
// underlying reader is returned wrapped and is fatal for the run.
func Load(shpPath string, opts LoadOptions) (*types.FeatureSet, error) {
	decoder, err := attributeDecoder(shpPath, opts.Encoding)
	if err != nil {
		return nil, err
	}

	crs, err := loadCRS(shpPath, opts.SourceCRS)
	if err != nil {
		return nil, err
	}

	// The reader opens exactly <path without "shp">dbf and reports a missing
	// table as zero fields, so check for it here.
	dbfPath := shpPath[:len(shpPath)-len("shp")] + "dbf"
	if !utils.FileExists(dbfPath) {
		return nil, &types.NotFoundError{Kind: "attribute table", Path: dbfPath}
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer reader.Close()

	fields := reader.Fields()
	records := reader.AttributeCount()
	names := make([]string, len(fields))
	for i, f := range fields {
		name, err := decoder.decode(strings.TrimRight(f.String(), "\x00 "))
		if err != nil {
			return nil, fmt.Errorf("failed to decode field name %d: %w", i, err)
		}
		names[i] = name
	}

	fs := &types.FeatureSet{
		Source: shpPath,
		Fields: names,
		CRS:    crs,
	}

	for reader.Next() {
		row, shape := reader.Shape()
		if row >= records {
			return nil, fmt.Errorf("shape %d has no attribute record: %s has %d records", row, dbfPath, records)
		}

		geometry, err := convertShape(shape)
		if err != nil {
			return nil, fmt.Errorf("failed to convert shape %d: %w", row, err)
		}

		props := types.NewRecord(len(fields) + 1)
		for i, f := range fields {
			value, err := attributeValue(f, reader.ReadAttribute(row, i), decoder)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s of record %d: %w", names[i], row, err)
			}
			props.Set(names[i], value)
		}

		fs.Features = append(fs.Features, &types.Feature{
			Geometry:   geometry,
			Properties: props,
		})
	}

	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile: %w", err)
	}
	if records != fs.Len() {
		return nil, fmt.Errorf("attribute table %s has %d records for %d shapes", dbfPath, records, fs.Len())
	}

	log.Debug().
		Str("file", shpPath).
		Int("features", fs.Len()).
		Int("fields", len(fields)).
		Str("crs", crs.String()).
		Msg("Shapefile loaded")

	return fs, nil
}

func loadCRS(shpPath, fallback string) (*types.CRS, error) {
	prjPath, _ := utils.FindCompanion(shpPath, ".prj")
	crs, err := ReadPRJ(prjPath)
	if err != nil {
		return nil, err
	}
	if crs != nil || fallback == "" {
		return crs, nil
	}

	return DefinitionCRS(fallback)
}

// DefinitionCRS builds a CRS from a configured definition: an "AUTH:code"
// string, a PROJ string or WKT.
func DefinitionCRS(definition string) (*types.CRS, error) {
	definition = strings.TrimSpace(definition)
	upper := strings.ToUpper(definition)

	switch {
	case strings.HasPrefix(definition, "+"):
		return &types.CRS{Definition: definition, Kind: types.CRSUnknown}, nil
	case strings.Contains(definition, "[") || strings.Contains(definition, "("):
		return InspectWKT(definition)
	case strings.Contains(definition, ":"):
		kind := types.CRSUnknown
		if upper == types.WGS84 {
			kind = types.CRSGeographic
		}
		return &types.CRS{Definition: definition, Kind: kind, Authority: upper}, nil
	default:
		return nil, fmt.Errorf("unrecognized CRS definition %q", definition)
	}
}

// =============================================================================
// ATTRIBUTES
// =============================================================================

// textDecoder converts attribute text to UTF-8. Without a code page the
// text must already be valid UTF-8.
type textDecoder struct {
	enc encoding.Encoding
}

func (d textDecoder) decode(s string) (string, error) {
	if d.enc == nil {
		out, _, err := transform.String(encoding.UTF8Validator, s)
		return out, err
	}
	return d.enc.NewDecoder().String(s)
}

// attributeDecoder resolves the code page of the attribute table.
func attributeDecoder(shpPath, override string) (textDecoder, error) {
	label := override
	if label == "" {
		if cpgPath, ok := utils.FindCompanion(shpPath, ".cpg"); ok {
			data, err := os.ReadFile(cpgPath)
			if err != nil {
				return textDecoder{}, fmt.Errorf("failed to read code page file: %w", err)
			}
			label = string(data)
		}
	}

	label = normalizeCodePage(label)
	if label == "" || label == "utf-8" {
		return textDecoder{}, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return textDecoder{}, fmt.Errorf("unsupported attribute encoding %q: %w", label, err)
	}
	return textDecoder{enc: enc}, nil
}

// normalizeCodePage turns the content of a .cpg file into an encoding label.
// ESRI writes bare Windows code page numbers ("1252"), "ANSI 1252", or
// ISO names without separators ("88591").
func normalizeCodePage(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.TrimPrefix(label, "ansi ")
	label = strings.TrimPrefix(label, "cp")

	if _, err := strconv.Atoi(label); err != nil {
		if label == "utf8" {
			return "utf-8"
		}
		return label
	}

	switch {
	case label == "65001":
		return "utf-8"
	case strings.HasPrefix(label, "8859") && len(label) > 4:
		return "iso-8859-" + label[4:]
	default:
		return "windows-" + label
	}
}

// attributeValue converts a raw DBF cell to a JSON-friendly value according
// to the column type.
func attributeValue(field shp.Field, raw string, decoder textDecoder) (interface{}, error) {
	value := strings.TrimRight(raw, "\x00 ")

	switch field.Fieldtype {
	case 'C', 'M':
		return decoder.decode(value)

	case 'N', 'F':
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, nil
		}
		if field.Fieldtype == 'N' && field.Precision == 0 {
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				return n, nil
			}
		}
		// JSON has no NaN or Infinity.
		if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, nil
		}
		return nil, nil

	case 'L':
		switch strings.ToUpper(strings.TrimSpace(value)) {
		case "T", "Y":
			return true, nil
		case "F", "N":
			return false, nil
		default:
			return nil, nil
		}

	case 'D':
		value = strings.TrimSpace(value)
		if len(value) != 8 || value == "00000000" {
			return nil, nil
		}
		return value[0:4] + "-" + value[4:6] + "-" + value[6:8], nil

	default:
		return decoder.decode(value)
	}
}

// =============================================================================
// GEOMETRY
// =============================================================================

// convertShape maps a shapefile record to a go-geom geometry. Only X and Y
// are kept; Z and M values are dropped.
func convertShape(shape shp.Shape) (geom.T, error) {
	switch s := shape.(type) {
	case nil, *shp.Null:
		return nil, nil

	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil
	case *shp.PointM:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil

	case *shp.MultiPoint:
		return geom.NewMultiPointFlat(geom.XY, flatten(s.Points)), nil
	case *shp.MultiPointZ:
		return geom.NewMultiPointFlat(geom.XY, flatten(s.Points)), nil
	case *shp.MultiPointM:
		return geom.NewMultiPointFlat(geom.XY, flatten(s.Points)), nil

	case *shp.PolyLine:
		return lineGeometry(s.Parts, s.Points), nil
	case *shp.PolyLineZ:
		return lineGeometry(s.Parts, s.Points), nil
	case *shp.PolyLineM:
		return lineGeometry(s.Parts, s.Points), nil

	case *shp.Polygon:
		return polygonGeometry(s.Parts, s.Points), nil
	case *shp.PolygonZ:
		return polygonGeometry(s.Parts, s.Points), nil
	case *shp.PolygonM:
		return polygonGeometry(s.Parts, s.Points), nil

	default:
		return nil, fmt.Errorf("unsupported shape type %T", shape)
	}
}

func flatten(points []shp.Point) []float64 {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// splitParts cuts the point list of a multi-part shape into its parts.
func splitParts(parts []int32, points []shp.Point) [][]float64 {
	if len(parts) == 0 {
		if len(points) == 0 {
			return nil
		}
		return [][]float64{flatten(points)}
	}

	out := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) > end || end > len(points) {
			continue
		}
		out = append(out, flatten(points[start:end]))
	}
	return out
}

func lineGeometry(parts []int32, points []shp.Point) geom.T {
	lines := splitParts(parts, points)
	if len(lines) == 1 {
		return geom.NewLineStringFlat(geom.XY, lines[0])
	}

	var flat []float64
	ends := make([]int, 0, len(lines))
	for _, line := range lines {
		flat = append(flat, line...)
		ends = append(ends, len(flat))
	}
	return geom.NewMultiLineStringFlat(geom.XY, flat, ends)
}

// polygonGeometry groups shapefile rings into polygons. Outer rings are
// clockwise and open a new polygon; counter-clockwise rings are holes of the
// polygon opened last.
func polygonGeometry(parts []int32, points []shp.Point) geom.T {
	var polygons [][][]float64
	for _, ring := range splitParts(parts, points) {
		if len(polygons) > 0 && isHole(ring) {
			last := len(polygons) - 1
			polygons[last] = append(polygons[last], ring)
			continue
		}
		polygons = append(polygons, [][]float64{ring})
	}

	if len(polygons) == 1 {
		flat, ends := flattenRings(polygons[0], 0)
		return geom.NewPolygonFlat(geom.XY, flat, ends)
	}

	var flat []float64
	endss := make([][]int, 0, len(polygons))
	for _, rings := range polygons {
		f, ends := flattenRings(rings, len(flat))
		flat = append(flat, f...)
		endss = append(endss, ends)
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, endss)
}

// flattenRings concatenates rings; ends are offset by base so they index into
// the enclosing flat slice.
func flattenRings(rings [][]float64, base int) ([]float64, []int) {
	var flat []float64
	ends := make([]int, 0, len(rings))
	for _, ring := range rings {
		flat = append(flat, ring...)
		ends = append(ends, base+len(flat))
	}
	return flat, ends
}

func isHole(ring []float64) bool {
	// Orientation is undefined below 4 points (3 distinct + closing point).
	if len(ring) < 8 {
		return false
	}
	return xy.IsRingCounterClockwise(geom.XY, ring)
}
