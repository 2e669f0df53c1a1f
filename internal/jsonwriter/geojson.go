package jsonwriter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/fixkaro/map-data-converter/internal/types"
)

// CRS84 is the OGC name of WGS84 with longitude/latitude axis order.
const CRS84 = "urn:ogc:def:crs:OGC:1.3:CRS84"

// =============================================================================
// GEOJSON OPTIONS
// =============================================================================

// GeoJSONOptions contains options for FeatureCollection output.
type GeoJSONOptions struct {
	// Name is written as the collection's "name" member when not empty.
	Name string

	// WriteCRS adds a "crs" member naming CRS84. RFC 7946 dropped the member,
	// but GDAL still writes it and some consumers look for it.
	WriteCRS bool

	// Indent is the number of spaces per nesting level. Zero writes one
	// feature per line.
	Indent int
}

// DefaultGeoJSONOptions returns the default options for GeoJSON output.
func DefaultGeoJSONOptions() GeoJSONOptions {
	return GeoJSONOptions{WriteCRS: true}
}

// =============================================================================
// DOCUMENT STRUCTURE
// =============================================================================

type namedCRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

type feature struct {
	Type       string            `json:"type"`
	Properties *types.Record     `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// =============================================================================
// GEOJSON OUTPUT
// =============================================================================

// WriteFeatureCollection writes fs as a GeoJSON FeatureCollection.
//
// The coordinates are written as stored; the caller is responsible for having
// reprojected them to WGS84 longitude/latitude.
func WriteFeatureCollection(w io.Writer, fs *types.FeatureSet, opts GeoJSONOptions) error {
	var buf bytes.Buffer
	if err := writeDocument(&buf, fs, opts); err != nil {
		return err
	}

	if opts.Indent <= 0 {
		_, err := w.Write(buf.Bytes())
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(buf.Bytes()), "", strings.Repeat(" ", opts.Indent)); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

// writeDocument writes the collection with one feature per line.
func writeDocument(w io.Writer, fs *types.FeatureSet, opts GeoJSONOptions) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("{\n\"type\": \"FeatureCollection\",\n")

	if opts.Name != "" {
		name, err := types.MarshalNoEscape(opts.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "\"name\": %s,\n", name)
	}

	if opts.WriteCRS {
		crs, err := types.MarshalNoEscape(namedCRS{
			Type:       "name",
			Properties: map[string]string{"name": CRS84},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "\"crs\": %s,\n", crs)
	}

	bw.WriteString("\"features\": [\n")
	for i, f := range fs.Features {
		line, err := encodeFeature(f)
		if err != nil {
			return fmt.Errorf("failed to encode feature %d: %w", i, err)
		}
		bw.Write(line)
		if i < len(fs.Features)-1 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("]\n}\n")

	return bw.Flush()
}

func encodeFeature(f *types.Feature) ([]byte, error) {
	out := feature{
		Type:       "Feature",
		Properties: f.Properties,
	}
	if out.Properties == nil {
		out.Properties = types.NewRecord(0)
	}

	if f.Geometry != nil {
		g, err := geojson.Encode(f.Geometry)
		if err != nil {
			return nil, err
		}
		out.Geometry = g
	}

	return types.MarshalNoEscape(out)
}
