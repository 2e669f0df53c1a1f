// =============================================================================
// Map Data Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - shapefile   (loads the FeatureSet)
//   - csvparser   (produces Records)
//   - xlsxparser  (produces Records)
//   - jsonwriter  (serializes both)
//   - converter   (orchestrates the pipelines)
//
// =============================================================================

package types

import (
	"github.com/twpayne/go-geom"
)

// =============================================================================
// FEATURE TYPES
// =============================================================================

// Feature is a single geographic feature read from a shapefile.
type Feature struct {
	// Geometry is the feature geometry in the coordinate system of the
	// owning FeatureSet. It is nil for null shapes.
	Geometry geom.T

	// Properties holds the attribute values in DBF column order.
	Properties *Record
}

// FeatureSet is the ordered collection of features loaded from one shapefile.
type FeatureSet struct {
	// Source is the path to the .shp file the features were read from.
	Source string

	// Fields lists the original attribute columns in DBF order.
	Fields []string

	// CRS describes the coordinate reference system declared by the .prj
	// companion. It is nil when the shapefile declares none.
	CRS *CRS

	// Features contains the features in shapefile record order.
	Features []*Feature
}

// Len returns the number of features in the set.
func (fs *FeatureSet) Len() int {
	return len(fs.Features)
}

// HasField reports whether the original attribute table has a column with
// exactly the given name.
func (fs *FeatureSet) HasField(name string) bool {
	for _, f := range fs.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Columns returns the original attribute columns followed by "geometry",
// matching what the table looks like to a user inspecting the shapefile.
func (fs *FeatureSet) Columns() []string {
	cols := make([]string, 0, len(fs.Fields)+1)
	cols = append(cols, fs.Fields...)
	return append(cols, "geometry")
}

// TransformCoords applies fn to every X/Y pair of every geometry in place.
// The first error returned by fn stops the walk.
func (fs *FeatureSet) TransformCoords(fn func(x, y float64) (float64, float64, error)) error {
	for _, feature := range fs.Features {
		if feature.Geometry == nil {
			continue
		}

		flat := feature.Geometry.FlatCoords()
		stride := feature.Geometry.Stride()

		for i := 0; i+1 < len(flat); i += stride {
			x, y, err := fn(flat[i], flat[i+1])
			if err != nil {
				return err
			}
			flat[i], flat[i+1] = x, y
		}
	}
	return nil
}

// Bounds returns the combined extent of all non-null geometries, or nil when
// the set has no geometry at all.
func (fs *FeatureSet) Bounds() *geom.Bounds {
	var bounds *geom.Bounds
	for _, feature := range fs.Features {
		if feature.Geometry == nil || len(feature.Geometry.FlatCoords()) == 0 {
			continue
		}
		if bounds == nil {
			bounds = geom.NewBounds(geom.XY)
		}
		bounds.Extend(feature.Geometry)
	}
	return bounds
}
