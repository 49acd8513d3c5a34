// =============================================================================
// Transit Payment Reports - Sample Command
// =============================================================================
//
// This file defines the 'sample' command, which writes a small data set to
// try the reports on.
//
// COMMAND USAGE:
//   transit-reports sample [--dir ./Data] [--format xml|csv|xlsx] [--force]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/loader"
	"github.com/ginjaninja78/transit-payment-reports/internal/sample"
)

var (
	sampleDir    string
	sampleFormat string
	sampleForce  bool
)

// sampleCmd represents the 'sample' command.
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write the sample data set",
	Long: `Write three routes, three passengers, three fare categories and two payment
files into a directory. Existing files are left alone unless --force is given.

The written files are loaded back with the same rules as 'generate' before the
command reports success.

Files in csv or xlsx format need matching --passengers/--categories/--payments
settings when passed to 'generate'.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("dir") {
			sampleDir = cfg.DataDir
		}

		out := newConsole(cfg)
		paths, err := sample.Write(sampleDir, sampleFormat, cfg.CSV, sampleForce)
		if err != nil {
			return err
		}
		for _, p := range paths {
			out.Debug("Wrote %s", p)
		}

		ds, err := loader.New(cfg.CSV).Load(sample.Sources(sampleDir, sampleFormat))
		if err != nil {
			return fmt.Errorf("sample files do not load back: %w", err)
		}
		out.Success("Wrote %d sample file(s) to %s: %d passenger(s), %d categor(ies), %d route(s), %d payment(s)",
			len(paths), sampleDir, len(ds.Passengers), len(ds.Categories), len(ds.Routes), len(ds.Payments))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().StringVar(&sampleDir, "dir", "", "Target directory (default is the configured data dir)")
	sampleCmd.Flags().StringVar(&sampleFormat, "format", config.FormatXML, "File format: xml, csv or xlsx")
	sampleCmd.Flags().BoolVar(&sampleForce, "force", false, "Overwrite existing sample files")
}
