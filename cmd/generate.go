// =============================================================================
// Transit Payment Reports - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command. It runs the
// report pipeline and prints a summary.
//
// COMMAND USAGE:
//   transit-reports generate [flags]
//
// FLAGS:
//   --data-dir    : Directory holding the record files
//   --passengers  : Passengers source
//   --categories  : Categories source
//   --routes      : Routes source (optional)
//   --payments    : Payment source or glob; repeatable
//   --output-dir  : Directory for the reports
//   --out-a       : Trip count report file
//   --out-b       : Monthly top route report file
//   --format      : Renditions to write (xml,json,csv,xlsx,pdf)
//   --dry-run     : Compute the reports without writing files
//   --print       : Print both reports as tables
//   --xsd         : Write an XSD next to each XML report
//   --sequential  : Compute the reports one after the other
//   --bootstrap   : Write the sample data set first when no passengers file exists
//   --pdf-font    : TrueType font for PDF exports
//
// EXIT STATUS:
//   0 when every report was written, 1 otherwise.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/pipeline"
	"github.com/ginjaninja78/transit-payment-reports/internal/sample"
	"github.com/ginjaninja78/transit-payment-reports/pkg/console"
	"github.com/ginjaninja78/transit-payment-reports/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// sourceFlags are shared by generate and validate.
type sourceFlags struct {
	dataDir    string
	passengers string
	categories string
	routes     string
	payments   []string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Directory holding the record files (default ./Data)")
	cmd.Flags().StringVar(&f.passengers, "passengers", "", "Passengers source, relative to the data dir (default passengers.xml)")
	cmd.Flags().StringVar(&f.categories, "categories", "", "Categories source, relative to the data dir (default categories.xml)")
	cmd.Flags().StringVar(&f.routes, "routes", "", "Routes source, relative to the data dir (optional)")
	cmd.Flags().StringSliceVar(&f.payments, "payments", nil, "Payment source or glob, relative to the data dir; repeatable (default payments*.xml)")
}

func (f *sourceFlags) apply(cmd *cobra.Command, cfg *config.MainConfig) {
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if cmd.Flags().Changed("passengers") {
		cfg.PassengersFile = f.passengers
	}
	if cmd.Flags().Changed("categories") {
		cfg.CategoriesFile = f.categories
	}
	if cmd.Flags().Changed("routes") {
		cfg.RoutesFile = f.routes
	}
	if cmd.Flags().Changed("payments") {
		cfg.PaymentFiles = f.payments
	}
}

var (
	generateSources sourceFlags
	outputDir       string
	outA            string
	outB            string
	formats         []string
	dryRun          bool
	printReports    bool
	writeXSD        bool
	sequential      bool
	bootstrap       bool
	pdfFont         string
)

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

// generateCmd represents the 'generate' command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the trip count and monthly top route reports",
	Long: `The generate command loads the record files, checks their references and
writes both reports.

Both reports are computed independently. A broken categories file only stops
the monthly top route report; broken passenger or payment files stop both.
Reports are written through a temporary file, so a failed run never leaves a
half-written report behind.

On completion:
  - The XML reports (and any requested renditions) are in the output directory
  - Dangling references and load errors are listed in an issue log
  - A run summary is written next to the reports`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateSources.register(generateCmd)

	generateCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the reports (default ./Output)")
	generateCmd.Flags().StringVar(&outA, "out-a", "", "Trip count report file, relative to the output dir (default task_a.xml)")
	generateCmd.Flags().StringVar(&outB, "out-b", "", "Monthly top route report file, relative to the output dir (default task_b.xml)")
	generateCmd.Flags().StringSliceVar(&formats, "format", nil, "Renditions to write: xml,json,csv,xlsx,pdf (default xml)")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the reports without writing files")
	generateCmd.Flags().BoolVar(&printReports, "print", false, "Print both reports as tables")
	generateCmd.Flags().BoolVar(&writeXSD, "xsd", false, "Write an XSD next to each XML report")
	generateCmd.Flags().BoolVar(&sequential, "sequential", false, "Compute the reports one after the other")
	generateCmd.Flags().BoolVar(&bootstrap, "bootstrap", false, "Write the sample data set first when the passengers file is missing")
	generateCmd.Flags().StringVar(&pdfFont, "pdf-font", "", "TrueType font for PDF exports (needed for non-Latin text)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command) error {
	cfg, err := loadConfig(func(cfg *config.MainConfig) {
		generateSources.apply(cmd, cfg)
		if cmd.Flags().Changed("output-dir") {
			cfg.OutputDir = outputDir
		}
		if cmd.Flags().Changed("out-a") {
			cfg.TripCountsFile = outA
		}
		if cmd.Flags().Changed("out-b") {
			cfg.MonthlyTopRoutesFile = outB
		}
		if cmd.Flags().Changed("format") {
			cfg.Formats = formats
		}
		if sequential {
			cfg.Sequential = true
		}
	})
	if err != nil {
		return err
	}

	out := newConsole(cfg)
	out.Info("Transit Payment Reports")

	// =========================================================================
	// STEP 1: BOOTSTRAP SAMPLE DATA
	// =========================================================================

	if bootstrap && !utils.FileExists(cfg.ResolveInput(cfg.PassengersFile)) {
		paths, err := sample.Write(cfg.DataDir, config.FormatXML, cfg.CSV, false)
		if err != nil {
			return fmt.Errorf("failed to write sample data: %w", err)
		}
		if cfg.RoutesFile == "" {
			cfg.RoutesFile = sample.RoutesName + ".xml"
		}
		out.Success("Wrote sample data set to %s (%d files)", cfg.DataDir, len(paths))
	}

	// =========================================================================
	// STEP 2: RUN PIPELINE
	// =========================================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := pipeline.New(cfg, pipeline.Options{
		DryRun:       dryRun,
		WriteSchemas: writeXSD,
		PDFFont:      pdfFont,
	}, out).Run(ctx)

	// =========================================================================
	// STEP 3: PRINT RESULTS
	// =========================================================================

	if printReports {
		printTripCounts(out, result.TripCounts)
		printMonthlyTopRoutes(out, result.MonthlyTopRoutes, result.Dataset.Routes)
	}

	printSummary(out, result)

	if err := result.Err(); err != nil {
		return fmt.Errorf("%d of %d report(s) failed", len(result.Failed()), len(result.Reports))
	}
	return nil
}

// printSummary prints one marked line per report and the run totals.
func printSummary(out *console.Console, result *pipeline.Result) {
	var lines []console.SummaryLine
	for _, rep := range result.Reports {
		line := console.SummaryLine{OK: rep.Success, Label: filepath.Base(rep.OutputFile)}
		if rep.Success {
			line.Detail = fmt.Sprintf("%s, %d row(s)", rep.Kind, rep.Rows)
		} else {
			line.Detail = rep.Error.Error()
		}
		lines = append(lines, line)
	}
	out.Summary("=== Run Complete ===", lines)

	ds := result.Dataset
	out.Println(fmt.Sprintf("  Passengers: %d  Categories: %d  Routes: %d  Payments: %d",
		len(ds.Passengers), len(ds.Categories), len(ds.Routes), len(ds.Payments)))
	if result.Stats.Unresolved > 0 {
		out.Println(fmt.Sprintf("  Payments left out of the monthly report: %s", console.BrightYellow(result.Stats.Unresolved)))
	}
	if result.IssueLog != "" {
		out.Println("  Issue log:  " + result.IssueLog)
	}
	if result.SummaryLog != "" {
		out.Println("  Summary:    " + result.SummaryLog)
	}
	out.Println(fmt.Sprintf("  Time elapsed: %s", result.Elapsed))
}
