// =============================================================================
// Transit Payment Reports - Configuration Module
// =============================================================================
//
// This module loads the run configuration: where the record files live,
// where the two reports go, which extra export formats to produce and how
// verbose the console is.
//
// SOURCES (later wins):
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. The config file (.yaml/.yml, .toml or .json, chosen by extension)
//   3. A .env file and TRANSIT_REPORTS_* environment variables
//   4. Command line flags (applied by the cmd package)
//
// =============================================================================

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TRANSIT_REPORTS_"

// Supported report renditions. XML is always written.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ExportFormats lists the renditions written next to the XML document, in
// the order they are written.
var ExportFormats = []string{FormatJSON, FormatCSV, FormatXLSX, FormatPDF}

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// DataDir is the directory relative file names below are resolved against.
	// Default: "./Data"
	DataDir string `yaml:"data_dir" toml:"data_dir" json:"data_dir" validate:"required"`

	// PassengersFile is the passengers source.
	// Default: "passengers.xml"
	PassengersFile string `yaml:"passengers_file" toml:"passengers_file" json:"passengers_file" validate:"required"`

	// CategoriesFile is the categories source. Only the monthly report needs it.
	// Default: "categories.xml"
	CategoriesFile string `yaml:"categories_file" toml:"categories_file" json:"categories_file" validate:"required"`

	// RoutesFile is the optional routes source. Empty disables route checks.
	RoutesFile string `yaml:"routes_file" toml:"routes_file" json:"routes_file"`

	// PaymentFiles lists payment sources; glob patterns are expanded and the
	// matches are concatenated in order.
	// Default: ["payments*.xml"]
	PaymentFiles []string `yaml:"payment_files" toml:"payment_files" json:"payment_files" validate:"required,min=1,dive,required"`

	// CSV holds settings for .csv sources and CSV exports.
	CSV CSVSettings `yaml:"csv" toml:"csv" json:"csv"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where the reports are written.
	// Default: "./Output"
	OutputDir string `yaml:"output_dir" toml:"output_dir" json:"output_dir" validate:"required"`

	// TripCountsFile is the trip count report (task A) file name.
	// Default: "task_a.xml"
	TripCountsFile string `yaml:"trip_counts_file" toml:"trip_counts_file" json:"trip_counts_file" validate:"required"`

	// MonthlyTopRoutesFile is the monthly top route report (task B) file name.
	// Default: "task_b.xml"
	MonthlyTopRoutesFile string `yaml:"monthly_top_routes_file" toml:"monthly_top_routes_file" json:"monthly_top_routes_file" validate:"required"`

	// Formats lists the renditions to produce next to the XML documents.
	// Default: ["xml"]
	Formats []string `yaml:"formats" toml:"formats" json:"formats" validate:"dive,oneof=xml json csv xlsx pdf"`

	// ArchiveOutputs copies every written report into ArchiveDir.
	ArchiveOutputs bool `yaml:"archive_outputs" toml:"archive_outputs" json:"archive_outputs"`

	// ArchiveDir receives archived copies.
	// Default: "./Output/archive"
	ArchiveDir string `yaml:"archive_dir" toml:"archive_dir" json:"archive_dir"`

	// ArchiveNameFormat names archived copies.
	// Placeholders: {uuid} {timestamp} {date} {time} {report} {original}
	// Default: "{original}_{timestamp}_{uuid}"
	ArchiveNameFormat string `yaml:"archive_name_format" toml:"archive_name_format" json:"archive_name_format"`

	// =========================================================================
	// RUN SETTINGS
	// =========================================================================

	// LogLevel controls console verbosity.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" toml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	// Sequential computes the two reports one after the other instead of
	// on two goroutines.
	Sequential bool `yaml:"sequential" toml:"sequential" json:"sequential"`
}

// CSVSettings contains settings for parsing and writing CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Common values: "," ";" "|" "tab".
	// Default: ","
	Delimiter string `yaml:"delimiter" toml:"delimiter" json:"delimiter"`
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ResolveInput joins a relative input path onto DataDir.
func (c *MainConfig) ResolveInput(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// ResolveOutput joins a relative output path onto OutputDir.
func (c *MainConfig) ResolveOutput(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}

// PaymentPatterns returns the payment patterns resolved against DataDir.
func (c *MainConfig) PaymentPatterns() []string {
	patterns := make([]string, 0, len(c.PaymentFiles))
	for _, p := range c.PaymentFiles {
		patterns = append(patterns, c.ResolveInput(p))
	}
	return patterns
}

// WantsFormat reports whether the given export format is enabled.
func (c *MainConfig) WantsFormat(format string) bool {
	for _, f := range c.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration holding only the built-in defaults.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration file at configPath.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//   - required: When false a missing file yields the defaults instead of an
//     error. The cmd package passes true only when --config was given.
//
// RETURNS:
//   - The configuration with defaults applied. It is not validated yet so
//     that env and flag overrides can still be applied; call Validate.
//   - An error if the file cannot be read or parsed.
func LoadMainConfig(configPath string, required bool) (*MainConfig, error) {
	cfg := &MainConfig{}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := unmarshal(configPath, data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(cfg)
	return cfg, nil
}

// unmarshal decodes data according to the file extension.
func unmarshal(path string, data []byte, cfg *MainConfig) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	return nil
}

// applyMainConfigDefaults sets default values for any unset options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.DataDir == "" {
		config.DataDir = "./Data"
	}
	if config.PassengersFile == "" {
		config.PassengersFile = "passengers.xml"
	}
	if config.CategoriesFile == "" {
		config.CategoriesFile = "categories.xml"
	}
	if len(config.PaymentFiles) == 0 {
		config.PaymentFiles = []string{"payments*.xml"}
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ","
	}
	if config.OutputDir == "" {
		config.OutputDir = "./Output"
	}
	if config.TripCountsFile == "" {
		config.TripCountsFile = "task_a.xml"
	}
	if config.MonthlyTopRoutesFile == "" {
		config.MonthlyTopRoutesFile = "task_b.xml"
	}
	if len(config.Formats) == 0 {
		config.Formats = []string{FormatXML}
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = filepath.Join(config.OutputDir, "archive")
	}
	if config.ArchiveNameFormat == "" {
		config.ArchiveNameFormat = "{original}_{timestamp}_{uuid}"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnv loads envFile (when it exists) into the process environment and
// then applies TRANSIT_REPORTS_* variables on top of cfg. Variables already
// set in the environment win over the file.
func ApplyEnv(cfg *MainConfig, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	strVars := map[string]*string{
		"DATA_DIR":                &cfg.DataDir,
		"PASSENGERS_FILE":         &cfg.PassengersFile,
		"CATEGORIES_FILE":         &cfg.CategoriesFile,
		"ROUTES_FILE":             &cfg.RoutesFile,
		"OUTPUT_DIR":              &cfg.OutputDir,
		"TRIP_COUNTS_FILE":        &cfg.TripCountsFile,
		"MONTHLY_TOP_ROUTES_FILE": &cfg.MonthlyTopRoutesFile,
		"ARCHIVE_DIR":             &cfg.ArchiveDir,
		"LOG_LEVEL":               &cfg.LogLevel,
		"CSV_DELIMITER":           &cfg.CSV.Delimiter,
	}
	for key, target := range strVars {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*target = v
		}
	}

	listVars := map[string]*[]string{
		"PAYMENT_FILES": &cfg.PaymentFiles,
		"FORMATS":       &cfg.Formats,
	}
	for key, target := range listVars {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*target = SplitList(v)
		}
	}

	boolVars := map[string]*bool{
		"ARCHIVE_OUTPUTS": &cfg.ArchiveOutputs,
		"SEQUENTIAL":      &cfg.Sequential,
	}
	for key, target := range boolVars {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*target = b
		}
	}

	return nil
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the struct tags and normalizes the format list.
func Validate(cfg *MainConfig) error {
	for i, f := range cfg.Formats {
		cfg.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.ArchiveOutputs && cfg.ArchiveDir == "" {
		return fmt.Errorf("invalid configuration: archive_outputs requires archive_dir")
	}
	return nil
}
