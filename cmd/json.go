// =============================================================================
// Map Data Converter - JSON Command
// =============================================================================
//
// This file defines the 'json' command, which converts a CSV (or XLSX) table
// to a JSON array with one object per row.
//
// COMMAND USAGE:
//   converter json [flags]
//
// FLAGS:
//   --input, -i     : CSV or XLSX file to read
//   --output, -o    : JSON file to write
//   --delimiter, -d : CSV field separator
//   --encoding      : Input character encoding
//   --sheet         : Worksheet of an XLSX input
//   --indent        : Spaces per indentation level
//   --dry-run       : Read the input without writing the output
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fixkaro/map-data-converter/internal/converter"
	"github.com/fixkaro/map-data-converter/internal/csvparser"
)

// jsonDryRun skips writing the output.
var jsonDryRun bool

var jsonCmd = &cobra.Command{
	Use:   "json",
	Short: "Convert a CSV table to JSON",
	Long: `The json command reads a CSV file whose first row is the header and writes
a JSON array with one object per row. Keys follow the header order and values
are the cell strings exactly as read. Rows with fewer cells than the header
get null for the missing columns; cells beyond the header are collected in an
array under the "null" key.

Files ending in .xlsx are read as workbooks (first sheet, or --sheet).`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runJSON(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jsonCmd)

	flags := jsonCmd.Flags()
	flags.StringP("input", "i", "", "CSV or XLSX file to read (default andhra-pradesh_assembly_term_16.csv)")
	flags.StringP("output", "o", "", "JSON file to write (default andhra-pradesh_assembly_term_16.json)")
	flags.StringP("delimiter", "d", "", "CSV field separator (default \",\")")
	flags.String("encoding", "", "Input character encoding (default utf-8)")
	flags.String("sheet", "", "Worksheet of an XLSX input (default the first sheet)")
	flags.Int("indent", 0, "Spaces per indentation level (default 4)")
	flags.BoolVar(&jsonDryRun, "dry-run", false, "Read the input without writing the output")

	bindFlag(flags, "input", "tabular.input")
	bindFlag(flags, "output", "tabular.output")
	bindFlag(flags, "delimiter", "tabular.delimiter")
	bindFlag(flags, "encoding", "tabular.encoding")
	bindFlag(flags, "sheet", "tabular.sheet")
	bindFlag(flags, "indent", "tabular.indent")
}

// runJSON converts the configured table.
func runJSON(cmd *cobra.Command) error {
	tc := cfg.Tabular

	conv := converter.NewTabular(converter.TabularOptions{
		Input:  tc.Input,
		Output: tc.Output,
		CSV: csvparser.Settings{
			Delimiter: tc.Delimiter,
			Encoding:  tc.Encoding,
			RestKey:   tc.RestKey,
		},
		Sheet:  tc.Sheet,
		Indent: tc.Indent,
		DryRun: jsonDryRun,
	})

	result, err := conv.Run()
	if err != nil {
		return err
	}

	if result.OutputFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "JSON saved: %s\n", result.OutputFile)
	}
	return nil
}
