// =============================================================================
// Map Data Converter - GeoJSON Command
// =============================================================================
//
// This file defines the 'geojson' command, which converts the shapefile in a
// directory to a WGS84 GeoJSON FeatureCollection.
//
// COMMAND USAGE:
//   converter geojson [flags]
//
// FLAGS:
//   --dir          : Directory holding the shapefile components
//   --output, -o   : GeoJSON file to write
//   --name         : Feature name, repeated once per feature in order
//   --names-file   : File with one feature name per line
//   --source-crs   : CRS to assume when there is no .prj file
//   --encoding     : Attribute table code page
//   --indent       : Pretty-print with this many spaces
//   --no-crs       : Omit the "crs" member
//   --dry-run      : Run every step except writing the output
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fixkaro/map-data-converter/internal/converter"
	"github.com/fixkaro/map-data-converter/internal/reproject"
	"github.com/fixkaro/map-data-converter/internal/shapefile"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// featureNames holds the repeated --name values.
var featureNames []string

// noCRS omits the "crs" member from the output.
var noCRS bool

// geojsonDryRun skips writing the output.
var geojsonDryRun bool

// =============================================================================
// GEOJSON COMMAND DEFINITION
// =============================================================================

var geojsonCmd = &cobra.Command{
	Use:   "geojson",
	Short: "Convert a shapefile to GeoJSON",
	Long: `The geojson command reads the first .shp file of a directory (its .shx and
.dbf companions must be next to it), names every feature, reprojects the
coordinates to WGS84 when the .prj file names another CRS, and writes a
GeoJSON FeatureCollection.

Feature names, in order of priority:
  - the names given with --name, --names-file or shapefile.names, one per
    feature (a count mismatch is an error and nothing is written)
  - the "name" attribute of the shapefile, if present
  - the feature index: "0", "1", ...`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGeoJSON(cmd)
	},
}

func init() {
	rootCmd.AddCommand(geojsonCmd)

	flags := geojsonCmd.Flags()
	flags.String("dir", "", "Directory holding the shapefile (default maps/assembly-constituencies)")
	flags.StringP("output", "o", "", "GeoJSON file to write (default india_assembly.geojson)")
	flags.StringArrayVar(&featureNames, "name", nil, "Feature name, repeat once per feature in order")
	flags.String("names-file", "", "File with one feature name per line")
	flags.String("source-crs", "", "CRS to assume when there is no .prj file (e.g. EPSG:32644)")
	flags.String("encoding", "", "Attribute table code page (default from .cpg, else UTF-8)")
	flags.Int("indent", 0, "Pretty-print with this many spaces (0 writes one feature per line)")
	flags.BoolVar(&noCRS, "no-crs", false, "Omit the \"crs\" member")
	flags.BoolVar(&geojsonDryRun, "dry-run", false, "Run every step except writing the output")

	bindFlag(flags, "dir", "shapefile.dir")
	bindFlag(flags, "output", "shapefile.output")
	bindFlag(flags, "names-file", "shapefile.names_file")
	bindFlag(flags, "source-crs", "shapefile.source_crs")
	bindFlag(flags, "encoding", "shapefile.encoding")
	bindFlag(flags, "indent", "shapefile.indent")
}

// runGeoJSON converts the configured shapefile.
func runGeoJSON(cmd *cobra.Command) error {
	sc := cfg.Shapefile

	if cmd.Flags().Changed("name") {
		sc.Names = featureNames
		sc.NamesFile = ""
	}
	if cmd.Flags().Changed("no-crs") {
		sc.WriteCRS = !noCRS
	}

	names := sc.Names
	if len(names) == 0 && sc.NamesFile != "" {
		var err error
		names, err = shapefile.ReadNamesFile(sc.NamesFile)
		if err != nil {
			return err
		}
	}

	conv := converter.NewShapefile(converter.ShapefileOptions{
		Dir:       sc.Dir,
		Output:    sc.Output,
		Names:     names,
		Encoding:  sc.Encoding,
		SourceCRS: sc.SourceCRS,
		WriteCRS:  sc.WriteCRS,
		Indent:    sc.Indent,
		DryRun:    geojsonDryRun,
	}, reproject.New())

	result, err := conv.Run()
	if err != nil {
		return err
	}

	if result.OutputFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "GeoJSON saved: %s\n", result.OutputFile)
	}
	return nil
}
