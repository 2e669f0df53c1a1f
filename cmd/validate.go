// =============================================================================
// Map Data Converter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It prints the effective
// configuration and checks that the inputs of both converters are in place,
// without reading their contents or writing anything.
//
// CHECKS:
//   - shapefile.dir holds a .shp file with its .shx and .dbf companions
//   - shapefile.names_file exists, when set
//   - tabular.input exists
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fixkaro/map-data-converter/internal/shapefile"
	"github.com/fixkaro/map-data-converter/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Print the effective configuration and check the inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate prints the configuration and the outcome of every check. It
// returns an error when at least one check failed.
func runValidate(out io.Writer) error {
	doc, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Fprintln(out, "=== Effective configuration ===")
	fmt.Fprint(out, string(doc))
	fmt.Fprintln(out, "=== Checks ===")

	failed := 0
	check := func(label string, err error) {
		if err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %s: %v\n", label, err)
			return
		}
		fmt.Fprintf(out, "  ✓ %s\n", label)
	}

	shpPath, err := shapefile.Discover(cfg.Shapefile.Dir)
	check("shapefile", err)
	if err == nil {
		check("shapefile companions", validation.CheckCompanions(shpPath))
	}

	if cfg.Shapefile.NamesFile != "" {
		check("names file", validation.RequireFile("names file", cfg.Shapefile.NamesFile))
	}

	check("tabular input", validation.RequireFile("input file", cfg.Tabular.Input))

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
