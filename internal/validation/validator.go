// =============================================================================
// Map Data Converter - Validation Module
// =============================================================================
//
// This module holds the precondition checks of both converters. They are the
// only validation the tool performs:
//   - Input files exist (CSV/XLSX input, shapefile companions)
//   - An explicit name list has exactly one entry per feature
//
// ERROR HANDLING:
//   - Checks fail fast with a typed error from the types package
//   - Nothing is written before every check has passed
//   - There is no schema or content validation of attributes or geometry
//
// =============================================================================

package validation

import (
	"fmt"

	"github.com/fixkaro/map-data-converter/internal/types"
	"github.com/fixkaro/map-data-converter/pkg/utils"
)

// =============================================================================
// COMPANION FILES
// =============================================================================

// RequiredCompanions are the shapefile parts that must sit next to the .shp
// file. The .prj and .cpg companions are optional.
var RequiredCompanions = []string{".shx", ".dbf"}

// CheckCompanions verifies that every required companion of shpPath exists.
//
// PARAMETERS:
//   - shpPath: The path to the .shp file.
//
// RETURNS:
//   - nil if all companions are present.
//   - A *types.NotFoundError naming the first missing companion.
func CheckCompanions(shpPath string) error {
	if !utils.FileExists(shpPath) {
		return &types.NotFoundError{Kind: "required file", Path: shpPath}
	}

	for _, ext := range RequiredCompanions {
		if path, ok := utils.FindCompanion(shpPath, ext); !ok {
			return &types.NotFoundError{Kind: "required file", Path: path}
		}
	}

	return nil
}

// =============================================================================
// INPUT FILES
// =============================================================================

// RequireFile returns a *types.NotFoundError if no regular file exists at path.
func RequireFile(kind, path string) error {
	if !utils.FileExists(path) {
		return &types.NotFoundError{Kind: kind, Path: path}
	}
	return nil
}

// =============================================================================
// NAME LIST
// =============================================================================

// ValidateNameList checks that an explicit name list can be assigned
// positionally to featureCount features. An empty list is always valid: it
// means no names were supplied.
func ValidateNameList(names []string, featureCount int) error {
	if len(names) == 0 || len(names) == featureCount {
		return nil
	}

	return &types.ValidationError{
		Field: "names",
		Message: fmt.Sprintf(
			"length of names list (%d) does not match number of features (%d)",
			len(names), featureCount,
		),
	}
}
