package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"payments2.xml", "payments1.xml", "routes.xml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<x/>"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "payments_dir.xml"), 0755); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "absent.xml")
	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name: "glob then explicit path",
			patterns: []string{
				filepath.Join(dir, "payments*.xml"),
				filepath.Join(dir, "payments1.xml"),
				filepath.Join(dir, "nothing*.xml"),
				missing,
			},
			want: []string{
				filepath.Join(dir, "payments1.xml"),
				filepath.Join(dir, "payments2.xml"),
				filepath.Join(dir, "payments1.xml"),
				missing,
			},
		},
		{
			name: "explicit path listed twice",
			patterns: []string{
				filepath.Join(dir, "payments2.xml"),
				filepath.Join(dir, "payments2.xml"),
			},
			want: []string{
				filepath.Join(dir, "payments2.xml"),
				filepath.Join(dir, "payments2.xml"),
			},
		},
		{
			name: "overlapping globs",
			patterns: []string{
				filepath.Join(dir, "payments1*.xml"),
				filepath.Join(dir, "payments*.xml"),
			},
			want: []string{
				filepath.Join(dir, "payments1.xml"),
				filepath.Join(dir, "payments2.xml"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiscoverFiles(tt.patterns...)
			if err != nil {
				t.Fatalf("DiscoverFiles: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := DiscoverFiles("[bad"); err == nil {
		t.Error("expected error for a malformed pattern")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task_a.xml")

	if err := WriteBytesAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteBytesAtomic: %v", err)
	}

	failure := errors.New("boom")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "first" {
		t.Errorf("target changed after failed write: %q, %v", data, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "task_a.xml")
	if err := WriteBytesAtomic(path, []byte("x")); err == nil {
		t.Fatal("expected error when the directory does not exist")
	}
	if FileExists(path) {
		t.Error("file should not exist")
	}
}

func TestArchiveOutputFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "task_b.xml")
	if err := os.WriteFile(src, []byte("<MonthlyTopRoutes />"), 0644); err != nil {
		t.Fatal(err)
	}

	fm := NewFileManager(dir, filepath.Join(dir, "archive"))
	if got, err := fm.ArchiveOutputFile(src, "monthly-top-routes"); err != nil || got != "" {
		t.Fatalf("disabled archive should be a no-op, got %q %v", got, err)
	}

	fm.ArchiveOnSuccess = true
	fm.ArchiveNameFormat = "{report}_{original}_{uuid}"
	got, err := fm.ArchiveOutputFile(src, "monthly-top-routes")
	if err != nil {
		t.Fatalf("ArchiveOutputFile: %v", err)
	}

	base := filepath.Base(got)
	if !strings.HasPrefix(base, "monthly-top-routes_task_b_") || !strings.HasSuffix(base, ".xml") {
		t.Errorf("unexpected archive name %s", base)
	}
	if !FileExists(src) {
		t.Error("source must stay in place")
	}
	data, _ := os.ReadFile(got)
	if string(data) != "<MonthlyTopRoutes />" {
		t.Errorf("archive content = %q", data)
	}
}

func TestGenerateOutputFileName(t *testing.T) {
	first := GenerateOutputFileName("{report}_{uuid}", ".json", map[string]string{"report": "a"})
	second := GenerateOutputFileName("{report}_{uuid}", ".json", map[string]string{"report": "a"})

	if first == second {
		t.Error("names should be unique")
	}
	if !strings.HasPrefix(first, "a_") || !strings.HasSuffix(first, ".json") {
		t.Errorf("unexpected name %s", first)
	}
	if got := GenerateOutputFileName("fixed.json", ".json", nil); got != "fixed.json" {
		t.Errorf("extension duplicated: %s", got)
	}
}

func TestWriteIssueLogAndSummary(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteIssueLog(nil, dir)
	if err != nil || path != "" {
		t.Fatalf("empty log should not be written: %q %v", path, err)
	}

	path, err = WriteIssueLog([]IssueLogEntry{{
		Timestamp:  time.Now(),
		Severity:   "warning",
		Kind:       "unresolved-passenger",
		Source:     "payments1.xml",
		Message:    "payment references unknown passenger 9",
		FieldName:  "PassengerId",
		FieldValue: "9",
	}}, dir)
	if err != nil {
		t.Fatalf("WriteIssueLog: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Total Issues: 1") || !strings.Contains(string(data), "unknown passenger 9") {
		t.Errorf("issue log content:\n%s", data)
	}

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	path, err = WriteSummaryLog(RunSummary{
		RunID:     "run-1",
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		Payments:  8,
		Reports:   []ReportInfo{{Name: "trip-counts", OutputFile: "task_a.xml", Rows: 3}},
		FailedReports: []FailedReportInfo{
			{Name: "monthly-top-routes", ErrorMessage: "missing source categories.xml"},
		},
	}, dir)
	if err != nil {
		t.Fatalf("WriteSummaryLog: %v", err)
	}
	if filepath.Base(path) != "run_summary_20240501_100000.txt" {
		t.Errorf("summary path = %s", path)
	}
	data, _ = os.ReadFile(path)
	for _, want := range []string{"run-1", "Duration:       2s", "Reports Failed:      1", "missing source categories.xml"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("summary lacks %q:\n%s", want, data)
		}
	}
}
