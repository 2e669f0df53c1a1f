// =============================================================================
// Map Data Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (converter)
//   ├── geojsonCmd  (converter geojson)
//   ├── jsonCmd     (converter json)
//   ├── validateCmd (converter validate)
//   └── versionCmd  (converter version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Reads the configuration file and CONVERTER_* environment variables
//   2. Binds the subcommand's flags to their configuration keys
//   3. Sets up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fixkaro/map-data-converter/internal/config"
	"github.com/fixkaro/map-data-converter/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file. When empty, an optional
// config.yaml in the working directory is used.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// cfg is the effective configuration, loaded before every subcommand.
var cfg *config.Config

// configKeyAnnotation marks a flag with the configuration key it overrides.
const configKeyAnnotation = "config_key"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "converter",
	Short: "Map data converter - shapefiles to GeoJSON, CSV to JSON",
	Long: `Map data converter prepares map and election data for the web:

  - Converts a shapefile (.shp with .shx and .dbf) to a WGS84 GeoJSON
    FeatureCollection, optionally naming every feature
  - Converts a CSV (or XLSX) table to a JSON array of objects

Every setting has a default and can be changed in config.yaml, with
CONVERTER_* environment variables or with flags.

Example Usage:
  converter geojson                          # maps/assembly-constituencies -> india_assembly.geojson
  converter geojson --dir maps/districts -o districts.geojson
  converter json -i results.csv -o results.json
  converter validate                         # Check inputs without writing`,

	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is ./config.yaml if present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json)")
	bindFlag(rootCmd.PersistentFlags(), "log-level", "log.level")
	bindFlag(rootCmd.PersistentFlags(), "log-format", "log.format")
}

// bindFlag records that flag name of fs overrides configuration key key.
func bindFlag(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(err)
	}
}

// initConfig loads the configuration for cmd and sets up logging.
func initConfig(cmd *cobra.Command) error {
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	if verbose {
		cfg.Log.Level = "debug"
	}

	logger.Logger{Level: cfg.Log.Level, Format: cfg.Log.Format}.Setup()

	if used := v.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("Using config file")
	}

	return nil
}

// bindFlags binds every annotated flag of fs to its configuration key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if len(keys) == 0 || err != nil {
			return
		}
		err = v.BindPFlag(keys[0], f)
	})
	return err
}
