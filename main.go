// =============================================================================
// Map Data Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   converter geojson   - Convert a shapefile directory to GeoJSON
//   converter json      - Convert a CSV (or XLSX) table to JSON
//   converter validate  - Print the configuration and check the inputs
//   converter version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Conversion logic (not for external import)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/fixkaro/map-data-converter/cmd"
)

func main() {
	cmd.Execute()
}
