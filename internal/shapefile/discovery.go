// =============================================================================
// Map Data Converter - Shapefile Module
// =============================================================================
//
// This module finds, checks and loads an ESRI shapefile. A shapefile is a set
// of files sharing one base name:
//   - .shp : geometry (required)
//   - .shx : geometry index (required)
//   - .dbf : attribute table (required)
//   - .prj : coordinate reference system as WKT (optional)
//   - .cpg : code page of the attribute table (optional)
//
// PIPELINE:
//   1. Discover : pick the .shp file in the source directory
//   2. Check    : verify the required companions exist (validation package)
//   3. Load     : read geometry, attributes and CRS into a types.FeatureSet
//   4. Name     : make sure every feature has a "name" attribute
//
// =============================================================================

package shapefile

import (
	"path/filepath"

	"github.com/fixkaro/map-data-converter/internal/types"
	"github.com/fixkaro/map-data-converter/pkg/utils"
)

// GeometryExt is the extension of the geometry file that names a shapefile.
const GeometryExt = ".shp"

// Discover returns the shapefile to convert from dir.
//
// Only dir itself is searched. When several .shp files are present the first
// in directory-listing order wins; which one that is carries no meaning.
//
// RETURNS:
//   - The path of the selected .shp file.
//   - A *types.NotFoundError if dir cannot be read or holds no .shp file.
func Discover(dir string) (string, error) {
	if !utils.DirExists(dir) {
		return "", &types.NotFoundError{Kind: "shapefile directory", Path: dir}
	}

	files, err := utils.DiscoverFiles(dir, GeometryExt)
	if err != nil {
		return "", &types.NotFoundError{Kind: "shapefile directory", Path: dir, Err: err}
	}

	if len(files) == 0 {
		return "", &types.NotFoundError{
			Kind: "shapefile",
			Path: filepath.Join(dir, "*"+GeometryExt),
		}
	}

	return files[0], nil
}
