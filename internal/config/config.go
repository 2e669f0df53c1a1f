// =============================================================================
// Map Data Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
// Every value has a default, so the tool runs without any configuration file;
// the defaults reproduce the fixed paths the converters have always used.
//
// CONFIGURATION SOURCES (highest precedence first):
//   1. Command line flags bound by the cmd package
//   2. Environment variables: CONVERTER_<SECTION>_<KEY>
//      (e.g., CONVERTER_SHAPEFILE_DIR, CONVERTER_TABULAR_INPUT); list
//      values such as CONVERTER_SHAPEFILE_NAMES are comma separated
//   3. The configuration file (config.yaml, or --config)
//   4. Defaults from applyDefaults
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "CONVERTER"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// Shapefile configures the shapefile to GeoJSON converter.
	Shapefile ShapefileConfig `mapstructure:"shapefile" yaml:"shapefile"`

	// Tabular configures the CSV (or XLSX) to JSON converter.
	Tabular TabularConfig `mapstructure:"tabular" yaml:"tabular"`

	// Log configures logging.
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// ShapefileConfig holds the settings of the shapefile converter.
type ShapefileConfig struct {
	// Dir is the directory holding the shapefile components.
	// Default: "maps/assembly-constituencies"
	Dir string `mapstructure:"dir" yaml:"dir"`

	// Output is the GeoJSON file to write.
	// Default: "india_assembly.geojson"
	Output string `mapstructure:"output" yaml:"output"`

	// Names optionally assigns a name to every feature, in order. Leave empty
	// when the attribute table already has meaningful names.
	Names []string `mapstructure:"names" yaml:"names,omitempty"`

	// NamesFile is a text file with one name per line, used when Names is
	// empty.
	NamesFile string `mapstructure:"names_file" yaml:"names_file,omitempty"`

	// Encoding overrides the code page of the attribute table.
	Encoding string `mapstructure:"encoding" yaml:"encoding,omitempty"`

	// SourceCRS is assumed when the shapefile has no .prj file.
	// Example: "EPSG:32644"
	SourceCRS string `mapstructure:"source_crs" yaml:"source_crs,omitempty"`

	// WriteCRS adds a "crs" member to the output.
	// Default: true
	WriteCRS bool `mapstructure:"write_crs" yaml:"write_crs"`

	// Indent pretty-prints the output with this many spaces. Zero writes one
	// feature per line.
	// Default: 0
	Indent int `mapstructure:"indent" yaml:"indent"`
}

// TabularConfig holds the settings of the CSV to JSON converter.
type TabularConfig struct {
	// Input is the CSV file to read. Files ending in .xlsx are read as
	// workbooks.
	// Default: "andhra-pradesh_assembly_term_16.csv"
	Input string `mapstructure:"input" yaml:"input"`

	// Output is the JSON file to write.
	// Default: "andhra-pradesh_assembly_term_16.json"
	Output string `mapstructure:"output" yaml:"output"`

	// Delimiter is the CSV field separator.
	// Default: ","
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	// Encoding is the input character encoding.
	// Default: "utf-8"
	Encoding string `mapstructure:"encoding" yaml:"encoding"`

	// Sheet selects the worksheet of an XLSX input. Default: the first sheet.
	Sheet string `mapstructure:"sheet" yaml:"sheet,omitempty"`

	// RestKey collects cells beyond the header width.
	// Default: "null"
	RestKey string `mapstructure:"rest_key" yaml:"rest_key"`

	// Indent is the number of spaces per level in the output.
	// Default: 4
	Indent int `mapstructure:"indent" yaml:"indent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level controls the verbosity of logging.
	// Valid values: "trace", "debug", "info", "warn", "error"
	// Default: "info"
	Level string `mapstructure:"level" yaml:"level"`

	// Format selects the log output format.
	// Valid values: "console", "json"
	// Default: "console"
	Format string `mapstructure:"format" yaml:"format"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// defaults lists the default value of every key, in viper key form. Keys
// without a default still need an entry: viper only reads environment
// variables for keys it knows about when unmarshalling.
var defaults = map[string]interface{}{
	"shapefile.dir":        "maps/assembly-constituencies",
	"shapefile.output":     "india_assembly.geojson",
	"shapefile.names":      []string{},
	"shapefile.names_file": "",
	"shapefile.encoding":   "",
	"shapefile.source_crs": "",
	"shapefile.write_crs":  true,
	"shapefile.indent":     0,
	"tabular.input":        "andhra-pradesh_assembly_term_16.csv",
	"tabular.output":       "andhra-pradesh_assembly_term_16.json",
	"tabular.delimiter":    ",",
	"tabular.encoding":     "utf-8",
	"tabular.sheet":        "",
	"tabular.rest_key":     "null",
	"tabular.indent":       4,
	"log.level":            "info",
	"log.format":           "console",
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// applyDefaults fills values that are still empty after unmarshalling, e.g.
// when a configuration file sets a key to an empty string.
func applyDefaults(cfg *Config) {
	if len(cfg.Shapefile.Names) == 0 {
		cfg.Shapefile.Names = nil
	}
	if cfg.Shapefile.Dir == "" {
		cfg.Shapefile.Dir = defaults["shapefile.dir"].(string)
	}
	if cfg.Shapefile.Output == "" {
		cfg.Shapefile.Output = defaults["shapefile.output"].(string)
	}
	if cfg.Tabular.Input == "" {
		cfg.Tabular.Input = defaults["tabular.input"].(string)
	}
	if cfg.Tabular.Output == "" {
		cfg.Tabular.Output = defaults["tabular.output"].(string)
	}
	if cfg.Tabular.Delimiter == "" {
		cfg.Tabular.Delimiter = defaults["tabular.delimiter"].(string)
	}
	if cfg.Tabular.Encoding == "" {
		cfg.Tabular.Encoding = defaults["tabular.encoding"].(string)
	}
	if cfg.Tabular.RestKey == "" {
		cfg.Tabular.RestKey = defaults["tabular.rest_key"].(string)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults["log.level"].(string)
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults["log.format"].(string)
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// New returns a viper instance with defaults and environment overrides set
// up. If configFile is not empty it is read and must exist; otherwise an
// optional config.yaml in the working directory is read.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// Load unmarshals the configuration held by v, applies defaults and
// validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validate checks values that have a fixed set of valid settings.
func validate(cfg *Config) error {
	if cfg.Shapefile.Indent < 0 {
		return fmt.Errorf("shapefile.indent must not be negative")
	}
	if cfg.Tabular.Indent < 0 {
		return fmt.Errorf("tabular.indent must not be negative")
	}
	if len(cfg.Shapefile.Names) > 0 && cfg.Shapefile.NamesFile != "" {
		return fmt.Errorf("shapefile.names and shapefile.names_file are mutually exclusive")
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", cfg.Log.Format)
	}

	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
