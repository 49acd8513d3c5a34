// =============================================================================
// Transit Payment Reports - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads every record file with
// the same strict rules as 'generate' and checks the references between
// them, without writing any report.
//
// COMMAND USAGE:
//   transit-reports validate [flags]
//
// FLAGS:
//   Source flags as for 'generate', plus
//   --strict   : Fail when dangling references are found
//   --no-log   : Do not write an issue log
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/loader"
	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/internal/validation"
	"github.com/ginjaninja78/transit-payment-reports/pkg/console"
	"github.com/ginjaninja78/transit-payment-reports/pkg/utils"
)

var (
	validateSources sourceFlags
	strict          bool
	noIssueLog      bool
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the record files without generating reports",
	Long: `The validate command loads passengers, categories, routes and payments and
reports:

  - files that are missing or malformed (with record and field)
  - passengers whose category does not exist
  - payments whose passenger or route does not exist
  - categories no payment is priced with

Load errors always fail the command. Dangling references fail it only with
--strict, because the reports tolerate them.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateSources.register(validateCmd)
	validateCmd.Flags().BoolVar(&strict, "strict", false, "Fail when dangling references are found")
	validateCmd.Flags().BoolVar(&noIssueLog, "no-log", false, "Do not write an issue log to the output directory")
}

func runValidate(cmd *cobra.Command) error {
	cfg, err := loadConfig(func(cfg *config.MainConfig) {
		validateSources.apply(cmd, cfg)
	})
	if err != nil {
		return err
	}
	out := newConsole(cfg)
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD EVERY SOURCE
	// =========================================================================
	// Each source is loaded on its own so that all load errors are reported
	// in one pass.

	l := loader.New(cfg.CSV)
	ds := &types.Dataset{}
	var loadErrors []error
	var lines []console.SummaryLine

	check := func(label string, count int, err error) bool {
		if err != nil {
			loadErrors = append(loadErrors, err)
			lines = append(lines, console.SummaryLine{OK: false, Label: label, Detail: err.Error()})
			return false
		}
		lines = append(lines, console.SummaryLine{OK: true, Label: label, Detail: fmt.Sprintf("%d record(s)", count)})
		return true
	}

	ds.Passengers, err = l.LoadPassengers(cfg.ResolveInput(cfg.PassengersFile))
	passengersOK := check("passengers", len(ds.Passengers), err)

	ds.Categories, err = l.LoadCategories(cfg.ResolveInput(cfg.CategoriesFile))
	categoriesOK := check("categories", len(ds.Categories), err)

	routesOK := false
	if cfg.RoutesFile != "" {
		ds.Routes, err = l.LoadRoutes(cfg.ResolveInput(cfg.RoutesFile))
		routesOK = check("routes", len(ds.Routes), err)
	}

	paymentFiles, err := utils.DiscoverFiles(cfg.PaymentPatterns()...)
	if err == nil {
		ds.Payments, err = l.LoadPayments(paymentFiles...)
	}
	paymentsOK := check(fmt.Sprintf("payments (%d file(s))", len(paymentFiles)), len(ds.Payments), err)

	// =========================================================================
	// STEP 2: CHECK REFERENCES
	// =========================================================================
	// Without passengers and payments every reference would look dangling.

	result := &validation.Result{}
	if passengersOK && paymentsOK {
		result = validation.Check(ds, validation.Options{Categories: categoriesOK, Routes: routesOK})
		lines = append(lines, console.SummaryLine{
			OK:     result.IsClean(),
			Label:  "references",
			Detail: fmt.Sprintf("%d warning(s), %d note(s)", result.WarningCount, result.InfoCount),
		})
	}

	out.Summary("=== Validation ===", lines)
	if len(result.Issues) > 0 {
		out.Println()
		out.Println(validation.FormatIssues(result.Issues))
	}

	// =========================================================================
	// STEP 3: ISSUE LOG
	// =========================================================================

	if !noIssueLog {
		entries := make([]utils.IssueLogEntry, 0, len(loadErrors)+len(result.Issues))
		for _, e := range loadErrors {
			entries = append(entries, validation.LoadErrorEntry(e, startTime))
		}
		entries = append(entries, validation.LogEntries(result.Issues, startTime)...)

		if len(entries) > 0 {
			if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path, err := utils.WriteIssueLog(entries, cfg.OutputDir)
			if err != nil {
				return err
			}
			out.Info("Issue log: %s", path)
		}
	}

	switch {
	case len(loadErrors) > 0:
		return fmt.Errorf("%d source(s) could not be loaded", len(loadErrors))
	case strict && !result.IsClean():
		return fmt.Errorf("%d dangling reference(s) found", result.WarningCount)
	}

	out.Success("Validation passed")
	return nil
}
