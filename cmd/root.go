// =============================================================================
// Transit Payment Reports - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (transit-reports)
//   ├── generateCmd (transit-reports generate)
//   ├── validateCmd (transit-reports validate)
//   ├── sampleCmd   (transit-reports sample)
//   └── versionCmd  (transit-reports version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --env-file, --verbose)
//   and loadConfig, which every command uses to build its configuration:
//   defaults, then the config file, then .env and environment variables,
//   then the command's own flags.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/pkg/console"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is read when present; --config makes the file required.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to an optional .env file.
var envFile string

// verbose enables debug output when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "transit-reports",
	Short: "Transit Payment Reports - trip counts and top routes from fare payment records",
	Long: `Transit Payment Reports reads passenger, fare category, route and payment
records and produces two XML reports:

  Task A  trip counts per passenger, grouped by route
  Task B  the highest-grossing route of every month

Key Features:
  - XML, CSV and XLSX record sources
  - Strict input checks with record and field level error messages
  - Reference integrity report for dangling ids
  - JSON, CSV, XLSX and PDF renditions next to the XML reports
  - Atomic output writes

Example Usage:
  transit-reports sample                      # Write the sample data set to ./Data
  transit-reports generate                    # Build both reports into ./Output
  transit-reports generate --format json,pdf  # Also export JSON and PDF
  transit-reports validate                    # Check the data without writing reports`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
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
		"Path to the configuration file (.yaml, .toml or .json; default is config.yaml when present)",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a .env file with TRANSIT_REPORTS_* overrides",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig builds the configuration from the config file and environment.
// apply receives the configuration before validation so a command can layer
// its flags on top.
func loadConfig(apply func(cfg *config.MainConfig)) (*config.MainConfig, error) {
	path, required := cfgFile, true
	if path == "" {
		path, required = defaultConfigFile, false
	}

	cfg, err := config.LoadMainConfig(path, required)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, envFile); err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newConsole creates the console for cfg's log level.
func newConsole(cfg *config.MainConfig) *console.Console {
	level := console.LevelInfo
	if cfg != nil {
		level = console.ParseLevel(cfg.LogLevel)
	}
	if verbose {
		level = console.LevelDebug
	}
	return console.New(level, rootCmd.OutOrStdout())
}
