// =============================================================================
// Transit Payment Reports - Pipeline Module
// =============================================================================
//
// This module runs one report generation: it loads the record files, checks
// their references, computes both reports and writes every requested
// rendition.
//
// PIPELINE:
//   1. Resolve the payment file patterns
//   2. Load passengers, payments, categories and routes
//   3. Check references and write the issue log
//   4. Compute and write both reports (concurrently unless sequential)
//   5. Write the run summary
//
// FAILURE SCOPE:
//   - Passenger or payment load failure fails both reports
//   - Category load failure fails the monthly top route report only
//   - Route load failure only loses the stop names and the route check
//   - One report failing never stops the other from being attempted
//   - A report that fails while writing removes the files it already wrote,
//     so no half-written rendition set is left behind
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/export"
	"github.com/ginjaninja78/transit-payment-reports/internal/loader"
	"github.com/ginjaninja78/transit-payment-reports/internal/report"
	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/internal/validation"
	"github.com/ginjaninja78/transit-payment-reports/internal/xmlwriter"
	"github.com/ginjaninja78/transit-payment-reports/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// ReportResult represents the outcome of one report.
type ReportResult struct {
	// Kind names the report.
	Kind xmlwriter.ReportKind

	// OutputFile is the path of the XML document. In a dry run it is the
	// path that would have been written.
	OutputFile string

	// Exports lists the other renditions written next to the XML document.
	Exports []string

	// Schema is the path of the XSD written for the report, if any.
	Schema string

	// ArchivePath is the archived copy of the XML document, if any.
	ArchivePath string

	// Rows is the number of top-level report elements.
	Rows int

	// Success indicates whether every rendition was written.
	Success bool

	// Error contains the cause when Success is false.
	Error error

	// ProcessingTime is the time taken to compute and write the report.
	ProcessingTime time.Duration
}

// Result represents the outcome of a run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// PaymentFiles are the payment sources after pattern expansion.
	PaymentFiles []string

	// Dataset holds whatever was loaded. Categories or Routes stay empty
	// when their source failed.
	Dataset *types.Dataset

	// Check is the reference check result. It is nil when passengers or
	// payments could not be loaded.
	Check *validation.Result

	// TripCounts and MonthlyTopRoutes are the computed report rows.
	TripCounts       []types.PassengerTrips
	MonthlyTopRoutes []types.MonthlyRouteRevenue

	// Stats describes how the monthly report resolved payments.
	Stats report.Stats

	// Reports holds the trip count result followed by the monthly result.
	Reports []ReportResult

	// IssueLog and SummaryLog are the log files written, if any.
	IssueLog   string
	SummaryLog string

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Failed returns the reports that did not succeed.
func (r *Result) Failed() []ReportResult {
	var failed []ReportResult
	for _, rep := range r.Reports {
		if !rep.Success {
			failed = append(failed, rep)
		}
	}
	return failed
}

// Err joins the causes of every failed report. It is nil when all reports
// succeeded.
func (r *Result) Err() error {
	var errs []error
	for _, rep := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", rep.Kind, rep.Error))
	}
	return errors.Join(errs...)
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Logger is an interface for logging. Both report jobs log through the same
// Logger, so implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Options adjusts a single run beyond the configuration.
type Options struct {
	// DryRun computes the reports without writing any file.
	DryRun bool

	// WriteSchemas writes an XSD next to each XML report.
	WriteSchemas bool

	// PDFFont is a TrueType font used for PDF exports.
	PDFFont string
}

// Pipeline runs report generation for one configuration.
type Pipeline struct {
	cfg     *config.MainConfig
	options Options
	logger  Logger
	loader  *loader.Loader
	files   *utils.FileManager
}

// New creates a Pipeline. A nil logger prints to standard output.
//
// PARAMETERS:
//   - cfg: The validated configuration.
//   - options: Per-run options.
//   - logger: Receives progress messages.
//
// RETURNS:
//   - A new Pipeline instance.
func New(cfg *config.MainConfig, options Options, logger Logger) *Pipeline {
	if logger == nil {
		logger = &defaultLogger{out: os.Stdout}
	}

	files := utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir)
	files.ArchiveOnSuccess = cfg.ArchiveOutputs
	if cfg.ArchiveNameFormat != "" {
		files.ArchiveNameFormat = cfg.ArchiveNameFormat
	}

	return &Pipeline{
		cfg:     cfg,
		options: options,
		logger:  logger,
		loader:  loader.New(cfg.CSV),
		files:   files,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline.
//
// RETURNS:
//   - The run result. It is never nil; use Result.Err for the exit status.
func (p *Pipeline) Run(ctx context.Context) *Result {
	startTime := time.Now()
	result := &Result{
		RunID:   uuid.New().String(),
		Dataset: &types.Dataset{},
		Reports: []ReportResult{
			{Kind: xmlwriter.TripCountsReport, OutputFile: p.cfg.ResolveOutput(p.cfg.TripCountsFile)},
			{Kind: xmlwriter.MonthlyTopRoutesReport, OutputFile: p.cfg.ResolveOutput(p.cfg.MonthlyTopRoutesFile)},
		},
	}
	defer func() { result.Elapsed = time.Since(startTime) }()

	p.logger.Debug("Run %s", result.RunID)

	if !p.options.DryRun {
		if err := p.files.EnsureDirectories(); err != nil {
			p.failAll(result, err)
			return result
		}
	}

	// =========================================================================
	// STEP 1: RESOLVE PAYMENT FILES
	// =========================================================================

	paymentFiles, err := utils.DiscoverFiles(p.cfg.PaymentPatterns()...)
	if err != nil {
		p.failAll(result, err)
		return result
	}
	result.PaymentFiles = paymentFiles
	p.logger.Debug("Payment files: %s", strings.Join(paymentFiles, ", "))

	// =========================================================================
	// STEP 2: LOAD RECORDS
	// =========================================================================

	var loadIssues []utils.IssueLogEntry
	ds := result.Dataset

	ds.Passengers, err = p.loader.LoadPassengers(p.cfg.ResolveInput(p.cfg.PassengersFile))
	if err == nil {
		ds.Payments, err = p.loader.LoadPayments(paymentFiles...)
	}
	if err != nil {
		p.logger.Error("Failed to load records: %v", err)
		p.failAll(result, err)
		loadIssues = append(loadIssues, validation.LoadErrorEntry(err, startTime))
		result.IssueLog = p.writeIssueLog(loadIssues)
		p.writeSummary(result, startTime)
		return result
	}
	p.logger.Info("Loaded %d passenger(s) and %d payment(s) from %d file(s)",
		len(ds.Passengers), len(ds.Payments), len(paymentFiles))

	ds.Categories, err = p.loader.LoadCategories(p.cfg.ResolveInput(p.cfg.CategoriesFile))
	categoriesErr := err
	if categoriesErr != nil {
		p.logger.Error("Failed to load categories: %v", categoriesErr)
		loadIssues = append(loadIssues, validation.LoadErrorEntry(categoriesErr, startTime))
	} else {
		p.logger.Info("Loaded %d categor(ies)", len(ds.Categories))
	}

	routesLoaded := false
	if p.cfg.RoutesFile != "" {
		ds.Routes, err = p.loader.LoadRoutes(p.cfg.ResolveInput(p.cfg.RoutesFile))
		if err != nil {
			p.logger.Warn("Continuing without routes: %v", err)
			loadIssues = append(loadIssues, validation.LoadErrorEntry(err, startTime))
		} else {
			routesLoaded = true
			p.logger.Info("Loaded %d route(s)", len(ds.Routes))
		}
	}

	// =========================================================================
	// STEP 3: CHECK REFERENCES
	// =========================================================================

	result.Check = validation.Check(ds, validation.Options{
		Categories: categoriesErr == nil,
		Routes:     routesLoaded,
	})
	for _, issue := range result.Check.Issues {
		if issue.Severity == validation.SeverityWarning {
			p.logger.Warn("%s", issue.Message)
		} else {
			p.logger.Debug("%s", issue.Message)
		}
	}
	result.IssueLog = p.writeIssueLog(append(loadIssues, validation.LogEntries(result.Check.Issues, startTime)...))

	// =========================================================================
	// STEP 4: COMPUTE AND WRITE REPORTS
	// =========================================================================

	exporter := export.New(p.cfg.CSV, ds.Routes)
	exporter.FontPath = p.options.PDFFont

	tripCountsFile := result.Reports[0].OutputFile
	monthlyFile := result.Reports[1].OutputFile

	jobs := []func() jobOutput{
		func() jobOutput {
			return p.tripCounts(ds, tripCountsFile, exporter)
		},
		func() jobOutput {
			if categoriesErr != nil {
				return jobOutput{report: ReportResult{
					Kind:       xmlwriter.MonthlyTopRoutesReport,
					OutputFile: monthlyFile,
					Error:      fmt.Errorf("categories unavailable: %w", categoriesErr),
				}}
			}
			return p.monthlyTopRoutes(ds, monthlyFile, exporter)
		},
	}

	outputs := p.runJobs(ctx, jobs)
	for i, out := range outputs {
		result.Reports[i] = out.report
		if out.report.Success {
			p.logger.Info("Wrote %s report: %s", out.report.Kind, out.report.OutputFile)
		} else {
			p.logger.Error("%s report failed: %v", out.report.Kind, out.report.Error)
		}
	}
	result.TripCounts = outputs[0].tripCounts
	result.MonthlyTopRoutes = outputs[1].monthlyTopRoutes
	result.Stats = outputs[1].stats

	// =========================================================================
	// STEP 5: RUN SUMMARY
	// =========================================================================

	p.writeSummary(result, startTime)

	return result
}

// jobOutput is what one report job hands back. Jobs only read the dataset;
// Run copies their rows into the Result after every job has finished.
type jobOutput struct {
	report           ReportResult
	tripCounts       []types.PassengerTrips
	monthlyTopRoutes []types.MonthlyRouteRevenue
	stats            report.Stats
}

// runJobs runs the report jobs on their own goroutines, or one after the
// other when the configuration asks for it. Results keep the job order.
func (p *Pipeline) runJobs(ctx context.Context, jobs []func() jobOutput) []jobOutput {
	out := make([]jobOutput, len(jobs))

	run := func(i int) jobOutput {
		if err := ctx.Err(); err != nil {
			return jobOutput{report: ReportResult{Error: err}}
		}
		return jobs[i]()
	}

	if p.cfg.Sequential {
		for i := range jobs {
			out[i] = run(i)
		}
		return p.fillKinds(out)
	}

	type indexed struct {
		index  int
		result jobOutput
	}

	var wg sync.WaitGroup
	results := make(chan indexed, len(jobs))

	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- indexed{index: i, result: run(i)}
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		out[r.index] = r.result
	}
	return p.fillKinds(out)
}

// fillKinds names results of jobs cancelled before they started.
func (p *Pipeline) fillKinds(out []jobOutput) []jobOutput {
	kinds := []xmlwriter.ReportKind{xmlwriter.TripCountsReport, xmlwriter.MonthlyTopRoutesReport}
	for i := range out {
		if out[i].report.Kind == "" && i < len(kinds) {
			out[i].report.Kind = kinds[i]
		}
	}
	return out
}

// =============================================================================
// REPORT JOBS
// =============================================================================

func (p *Pipeline) tripCounts(ds *types.Dataset, outputFile string, exporter *export.Exporter) jobOutput {
	startTime := time.Now()
	rep := ReportResult{Kind: xmlwriter.TripCountsReport, OutputFile: outputFile}

	rows := report.CountTrips(ds.Passengers, ds.Payments)
	rep.Rows = len(rows)
	p.logger.Debug("Counted trips for %d passenger(s)", len(rows))

	err := p.writeReport(&rep, xmlwriter.TripCountsDocument(rows), func(format string, w io.Writer) error {
		return exporter.TripCounts(format, w, rows)
	})
	rep.ProcessingTime = time.Since(startTime)
	rep.Error = err
	rep.Success = err == nil
	return jobOutput{report: rep, tripCounts: rows}
}

func (p *Pipeline) monthlyTopRoutes(ds *types.Dataset, outputFile string, exporter *export.Exporter) jobOutput {
	startTime := time.Now()
	rep := ReportResult{Kind: xmlwriter.MonthlyTopRoutesReport, OutputFile: outputFile}

	rows, stats := report.MonthlyTopRoutesWithStats(ds.Passengers, ds.Categories, ds.Payments)
	rep.Rows = len(rows)
	if stats.Unresolved > 0 {
		p.logger.Warn("%d of %d payment(s) could not be priced and were left out of the monthly report",
			stats.Unresolved, stats.Payments)
	}

	err := p.writeReport(&rep, xmlwriter.MonthlyTopRoutesDocument(rows), func(format string, w io.Writer) error {
		return exporter.MonthlyTopRoutes(format, w, rows)
	})
	rep.ProcessingTime = time.Since(startTime)
	rep.Error = err
	rep.Success = err == nil
	return jobOutput{report: rep, monthlyTopRoutes: rows, stats: stats}
}

// writeReport writes the XML document, its exports, its schema and its
// archive copy. Nothing is written in a dry run. When a write fails, the
// files already written for this report are removed again.
func (p *Pipeline) writeReport(rep *ReportResult, doc *xmlwriter.Document, exportTo func(format string, w io.Writer) error) (err error) {
	data, err := xmlwriter.Marshal(doc, xmlwriter.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to generate XML: %w", err)
	}

	type target struct{ format, path string }
	var exports []target
	for _, format := range config.ExportFormats {
		if p.cfg.WantsFormat(format) {
			exports = append(exports, target{format, replaceExt(rep.OutputFile, export.Extension(format))})
		}
	}

	if p.options.DryRun {
		p.logger.Info("Dry run: would write %s (%d bytes)", rep.OutputFile, len(data))
		for _, t := range exports {
			p.logger.Info("Dry run: would write %s", t.path)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(rep.OutputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, path := range written {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				p.logger.Warn("Failed to remove %s: %v", path, rmErr)
			}
		}
		rep.Exports = nil
		rep.Schema = ""
	}()

	if err := utils.WriteBytesAtomic(rep.OutputFile, data); err != nil {
		return err
	}
	written = append(written, rep.OutputFile)

	for _, t := range exports {
		if err := utils.WriteFileAtomic(t.path, func(w io.Writer) error { return exportTo(t.format, w) }); err != nil {
			return fmt.Errorf("failed to export %s: %w", t.format, err)
		}
		written = append(written, t.path)
		rep.Exports = append(rep.Exports, t.path)
		p.logger.Debug("Exported %s", t.path)
	}

	if p.options.WriteSchemas {
		xsd, err := xmlwriter.GenerateXSD(rep.Kind)
		if err != nil {
			return err
		}
		path := replaceExt(rep.OutputFile, ".xsd")
		if err := utils.WriteBytesAtomic(path, xsd); err != nil {
			return err
		}
		written = append(written, path)
		rep.Schema = path
	}

	// Archive failures are logged but do not fail the report.
	archivePath, archiveErr := p.files.ArchiveOutputFile(rep.OutputFile, string(rep.Kind))
	if archiveErr != nil {
		p.logger.Warn("Failed to archive %s: %v", rep.OutputFile, archiveErr)
	}
	rep.ArchivePath = archivePath

	return nil
}

// =============================================================================
// LOGS
// =============================================================================

func (p *Pipeline) writeIssueLog(entries []utils.IssueLogEntry) string {
	if p.options.DryRun || len(entries) == 0 {
		return ""
	}
	path, err := utils.WriteIssueLog(entries, p.cfg.OutputDir)
	if err != nil {
		p.logger.Warn("%v", err)
		return ""
	}
	p.logger.Info("Issue log: %s", path)
	return path
}

func (p *Pipeline) writeSummary(result *Result, startTime time.Time) {
	if p.options.DryRun {
		return
	}

	summary := utils.RunSummary{
		RunID:              result.RunID,
		StartTime:          startTime,
		EndTime:            time.Now(),
		PaymentFiles:       result.PaymentFiles,
		Passengers:         len(result.Dataset.Passengers),
		Categories:         len(result.Dataset.Categories),
		Routes:             len(result.Dataset.Routes),
		Payments:           len(result.Dataset.Payments),
		UnresolvedPayments: result.Stats.Unresolved,
	}
	if result.Check != nil {
		summary.Issues = len(result.Check.Issues)
	}
	for _, rep := range result.Reports {
		if !rep.Success {
			summary.FailedReports = append(summary.FailedReports, utils.FailedReportInfo{
				Name:         string(rep.Kind),
				ErrorMessage: rep.Error.Error(),
			})
			continue
		}
		summary.Reports = append(summary.Reports, utils.ReportInfo{
			Name:        string(rep.Kind),
			OutputFile:  rep.OutputFile,
			Exports:     rep.Exports,
			ArchivePath: rep.ArchivePath,
			Rows:        rep.Rows,
			ProcessTime: rep.ProcessingTime,
		})
	}

	path, err := utils.WriteSummaryLog(summary, p.cfg.OutputDir)
	if err != nil {
		p.logger.Warn("%v", err)
		return
	}
	result.SummaryLog = path
	p.logger.Debug("Summary log: %s", path)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// failAll marks every report as failed with err.
func (p *Pipeline) failAll(result *Result, err error) {
	for i := range result.Reports {
		result.Reports[i].Success = false
		result.Reports[i].Error = err
	}
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// defaultLogger is a simple logger that writes to an io.Writer.
type defaultLogger struct {
	mu  sync.Mutex
	out io.Writer
}

func (l *defaultLogger) Debug(msg string, args ...interface{}) {
	l.printf("[DEBUG] ", msg, args)
}

func (l *defaultLogger) Info(msg string, args ...interface{}) {
	l.printf("[INFO] ", msg, args)
}

func (l *defaultLogger) Warn(msg string, args ...interface{}) {
	l.printf("[WARN] ", msg, args)
}

func (l *defaultLogger) Error(msg string, args ...interface{}) {
	l.printf("[ERROR] ", msg, args)
}

func (l *defaultLogger) printf(prefix, msg string, args []interface{}) {
	line := prefix + fmt.Sprintf(msg, args...) + "\n"
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, line)
}
