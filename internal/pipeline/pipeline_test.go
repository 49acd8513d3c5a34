package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/sample"
	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/internal/xmlwriter"
)

// recordingLogger keeps every message for assertions. Both report jobs log
// through it at the same time.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) { l.add("DEBUG", msg, args) }
func (l *recordingLogger) Info(msg string, args ...interface{})  { l.add("INFO", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...interface{})  { l.add("WARN", msg, args) }
func (l *recordingLogger) Error(msg string, args ...interface{}) { l.add("ERROR", msg, args) }

func (l *recordingLogger) add(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(msg, args...))
}

func (l *recordingLogger) contains(level, part string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") && strings.Contains(line, part) {
			return true
		}
	}
	return false
}

// setup writes the sample data set and returns a config pointing at it.
func setup(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "Data")
	if _, err := sample.Write(dataDir, config.FormatXML, config.CSVSettings{}, false); err != nil {
		t.Fatalf("sample.Write: %v", err)
	}

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.RoutesFile = "routes.xml"
	cfg.OutputDir = filepath.Join(root, "Output")
	cfg.ArchiveDir = filepath.Join(root, "Output", "archive")
	return cfg
}

const wantTaskA = `<?xml version="1.0" encoding="utf-8"?>
<PassengerTripCounts>
  <Passenger Surname="Іваненко" Id="2">
    <Route Number="5" TripCount="2" />
  </Passenger>
  <Passenger Surname="Коваленко" Id="3">
    <Route Number="1" TripCount="1" />
    <Route Number="10" TripCount="1" />
  </Passenger>
  <Passenger Surname="Петренко" Id="1">
    <Route Number="1" TripCount="2" />
    <Route Number="5" TripCount="1" />
    <Route Number="10" TripCount="1" />
  </Passenger>
</PassengerTripCounts>
`

const wantTaskB = `<?xml version="1.0" encoding="utf-8"?>
<MonthlyTopRoutes>
  <Month Year="2024" Month="1">
    <TopRoute Number="1" TotalAmount="16.00" />
  </Month>
  <Month Year="2024" Month="2">
    <TopRoute Number="5" TotalAmount="12.00" />
  </Month>
  <Month Year="2024" Month="3">
    <TopRoute Number="10" TotalAmount="8.00" />
  </Month>
</MonthlyTopRoutes>
`

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRun_SampleData(t *testing.T) {
	for _, sequential := range []bool{false, true} {
		name := "concurrent"
		if sequential {
			name = "sequential"
		}
		t.Run(name, func(t *testing.T) {
			cfg := setup(t)
			cfg.Sequential = sequential

			result := New(cfg, Options{}, &recordingLogger{}).Run(context.Background())
			if err := result.Err(); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if got := readFile(t, filepath.Join(cfg.OutputDir, "task_a.xml")); got != wantTaskA {
				t.Errorf("task_a.xml =\n%s\nwant\n%s", got, wantTaskA)
			}
			if got := readFile(t, filepath.Join(cfg.OutputDir, "task_b.xml")); got != wantTaskB {
				t.Errorf("task_b.xml =\n%s\nwant\n%s", got, wantTaskB)
			}

			if result.Reports[0].Kind != xmlwriter.TripCountsReport || result.Reports[0].Rows != 3 {
				t.Errorf("trip counts result = %+v", result.Reports[0])
			}
			if result.Reports[1].Kind != xmlwriter.MonthlyTopRoutesReport || result.Reports[1].Rows != 3 {
				t.Errorf("monthly result = %+v", result.Reports[1])
			}
			if len(result.PaymentFiles) != 2 || result.Stats.Resolved != 8 {
				t.Errorf("payment files = %v, stats = %+v", result.PaymentFiles, result.Stats)
			}
			if result.IssueLog != "" {
				t.Errorf("clean data should not produce an issue log, got %s", result.IssueLog)
			}
			if result.SummaryLog == "" || !strings.Contains(readFile(t, result.SummaryLog), "Reports Written:     2") {
				t.Errorf("summary log missing or incomplete: %q", result.SummaryLog)
			}
		})
	}
}

func TestRun_ExportsSchemasAndArchive(t *testing.T) {
	cfg := setup(t)
	cfg.Formats = []string{config.FormatXML, config.FormatJSON, config.FormatCSV, config.FormatXLSX, config.FormatPDF}
	cfg.ArchiveOutputs = true

	result := New(cfg, Options{WriteSchemas: true}, &recordingLogger{}).Run(context.Background())
	if err := result.Err(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, rep := range result.Reports {
		if len(rep.Exports) != 4 {
			t.Errorf("%s exports = %v", rep.Kind, rep.Exports)
		}
		for _, path := range append(rep.Exports, rep.Schema, rep.ArchivePath) {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("%s: %v", rep.Kind, err)
			}
		}
	}

	if got := readFile(t, filepath.Join(cfg.OutputDir, "task_b.json")); !strings.Contains(got, `"finalStop": "Вокзал"`) {
		t.Errorf("task_b.json lacks route stops:\n%s", got)
	}
	if got := readFile(t, filepath.Join(cfg.OutputDir, "task_a.xsd")); !strings.Contains(got, "PassengerTripCounts") {
		t.Errorf("task_a.xsd does not describe the report:\n%s", got)
	}
}

func TestRun_ExportsFollowFixedOrder(t *testing.T) {
	cfg := setup(t)
	cfg.Formats = []string{config.FormatPDF, config.FormatJSON, config.FormatXML, config.FormatJSON}

	result := New(cfg, Options{}, &recordingLogger{}).Run(context.Background())
	if err := result.Err(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		filepath.Join(cfg.OutputDir, "task_a.json"),
		filepath.Join(cfg.OutputDir, "task_a.pdf"),
	}
	if got := result.Reports[0].Exports; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("exports = %v, want %v", got, want)
	}
}

func TestRun_FailedExportRemovesWrittenFiles(t *testing.T) {
	cfg := setup(t)
	cfg.Formats = []string{config.FormatXML, config.FormatJSON, config.FormatPDF}

	options := Options{WriteSchemas: true, PDFFont: filepath.Join(t.TempDir(), "absent.ttf")}
	result := New(cfg, options, &recordingLogger{}).Run(context.Background())

	if len(result.Failed()) != 2 {
		t.Fatalf("both reports should fail on the PDF export, got %v", result.Err())
	}
	for _, rep := range result.Reports {
		if len(rep.Exports) != 0 || rep.Schema != "" {
			t.Errorf("%s still lists outputs: %v %q", rep.Kind, rep.Exports, rep.Schema)
		}
	}
	for _, name := range []string{"task_a.xml", "task_a.json", "task_a.pdf", "task_a.xsd", "task_b.xml", "task_b.json"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not remain after a failed report: %v", name, err)
		}
	}
	if len(result.TripCounts) != 3 || len(result.MonthlyTopRoutes) != 3 {
		t.Errorf("rows should be kept even when writing fails")
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfg := setup(t)
	logger := &recordingLogger{}

	result := New(cfg, Options{DryRun: true, WriteSchemas: true}, logger).Run(context.Background())
	if err := result.Err(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
		t.Errorf("dry run created the output directory")
	}
	if len(result.TripCounts) != 3 || len(result.MonthlyTopRoutes) != 3 {
		t.Errorf("dry run should still compute the reports")
	}
	if !logger.contains("INFO", "would write") {
		t.Errorf("dry run should log planned writes: %v", logger.lines)
	}
}

func TestRun_CategoryFailureOnlyFailsMonthlyReport(t *testing.T) {
	cfg := setup(t)
	bad := `<Categories><Category Id="1"><TripCost>eight</TripCost></Category></Categories>`
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "categories.xml"), []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	result := New(cfg, Options{}, &recordingLogger{}).Run(context.Background())

	if !result.Reports[0].Success {
		t.Fatalf("trip counts should succeed: %v", result.Reports[0].Error)
	}
	if readFile(t, filepath.Join(cfg.OutputDir, "task_a.xml")) != wantTaskA {
		t.Errorf("task_a.xml differs from the sample report")
	}

	failed := result.Failed()
	if len(failed) != 1 || failed[0].Kind != xmlwriter.MonthlyTopRoutesReport {
		t.Fatalf("failed = %+v", failed)
	}
	if !errors.Is(result.Err(), types.ErrMalformedInput) {
		t.Errorf("Err() = %v, want malformed input", result.Err())
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "task_b.xml")); !os.IsNotExist(err) {
		t.Errorf("task_b.xml must not be written")
	}

	if result.IssueLog == "" {
		t.Fatal("expected an issue log")
	}
	log := readFile(t, result.IssueLog)
	for _, want := range []string{"malformed input", "Field:      TripCost", "Value:      eight"} {
		if !strings.Contains(log, want) {
			t.Errorf("issue log lacks %q:\n%s", want, log)
		}
	}
}

func TestRun_MissingPassengersFailsBothReports(t *testing.T) {
	cfg := setup(t)
	cfg.PassengersFile = "nobody.xml"

	result := New(cfg, Options{}, &recordingLogger{}).Run(context.Background())

	if len(result.Failed()) != 2 {
		t.Fatalf("both reports should fail, got %+v", result.Reports)
	}
	if !errors.Is(result.Err(), types.ErrMissingSource) {
		t.Errorf("Err() = %v, want missing source", result.Err())
	}
	for _, name := range []string{"task_a.xml", "task_b.xml"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); !os.IsNotExist(err) {
			t.Errorf("%s must not be written", name)
		}
	}
}

func TestRun_NoPaymentFilesMatched(t *testing.T) {
	cfg := setup(t)
	cfg.PaymentFiles = []string{"trips*.xml"}

	result := New(cfg, Options{DryRun: true}, &recordingLogger{}).Run(context.Background())
	if len(result.Failed()) != 2 || !errors.Is(result.Err(), types.ErrMissingSource) {
		t.Errorf("expected missing source for both reports, got %v", result.Err())
	}
}

func TestRun_UnresolvedReferencesAreReported(t *testing.T) {
	cfg := setup(t)
	extra := `<PaymentRecords>
  <PaymentRecord><Date>2024-03-20</Date><PassengerId>9</PassengerId><RouteNumber>1</RouteNumber></PaymentRecord>
  <PaymentRecord><Date>2024-03-21</Date><PassengerId>1</PassengerId><RouteNumber>77</RouteNumber></PaymentRecord>
</PaymentRecords>`
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "payments3.xml"), []byte(extra), 0644); err != nil {
		t.Fatal(err)
	}
	logger := &recordingLogger{}

	result := New(cfg, Options{}, logger).Run(context.Background())
	if err := result.Err(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Stats.Unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", result.Stats.Unresolved)
	}
	if result.Check == nil || result.Check.WarningCount != 2 {
		t.Errorf("check = %+v", result.Check)
	}
	if result.IssueLog == "" {
		t.Error("expected an issue log")
	}
	if !logger.contains("WARN", "could not be priced") {
		t.Errorf("expected a pricing warning: %v", logger.lines)
	}
}

func TestRun_Cancelled(t *testing.T) {
	cfg := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(cfg, Options{DryRun: true}, &recordingLogger{}).Run(ctx)
	if len(result.Failed()) != 2 || !errors.Is(result.Err(), context.Canceled) {
		t.Errorf("expected both reports cancelled, got %v", result.Err())
	}
}

func TestDefaultLogger(t *testing.T) {
	var b bytes.Buffer
	l := &defaultLogger{out: &b}
	l.Warn("%d dropped", 2)
	if b.String() != "[WARN] 2 dropped\n" {
		t.Errorf("got %q", b.String())
	}
}

func TestDefaultLogger_ConcurrentWriters(t *testing.T) {
	var b bytes.Buffer
	l := &defaultLogger{out: &b}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Info("job %d line %d", i, j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("got %d lines, want 400", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[INFO] job ") {
			t.Fatalf("interleaved line %q", line)
		}
	}
}
