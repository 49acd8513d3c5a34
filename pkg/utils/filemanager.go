// =============================================================================
// Transit Payment Reports - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the report run:
//   - Payment source discovery (glob expansion)
//   - Atomic output writes
//   - Report archival (copies with unique names)
//   - Issue log and run summary generation
//   - Directory management
//
// ATOMIC WRITES:
//   Every output is written to a temporary file in the destination directory
//   and renamed over the target only after the write succeeded. A failed or
//   interrupted run never leaves a truncated report behind.
//
// ARCHIVAL STRATEGY:
//   - Output files are copied (not moved) into the archive directory
//   - Archive names come from a placeholder format, see GenerateOutputFileName
//   - Input files are never touched
//
// =============================================================================

package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles output file operations for a run.
type FileManager struct {
	// OutputDir is the directory where reports and logs are placed.
	OutputDir string

	// ArchiveDir is the directory for archived report copies.
	ArchiveDir string

	// ArchiveNameFormat names archived copies; see GenerateOutputFileName.
	ArchiveNameFormat string

	// ArchiveOnSuccess determines whether written reports are archived.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:         outputDir,
		ArchiveDir:        archiveDir,
		ArchiveNameFormat: "{original}_{timestamp}_{uuid}",
		ArchiveOnSuccess:  false,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory, and the archive directory
// when archiving is enabled.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.OutputDir}
	if fm.ArchiveOnSuccess {
		dirs = append(dirs, fm.ArchiveDir)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverFiles expands glob patterns into file paths.
//
// PARAMETERS:
//   - patterns: Paths or glob patterns (e.g., "Data/payments*.xml").
//
// RETURNS:
//   - The matching files, pattern by pattern, each pattern's matches in
//     lexical order.
//   - An error if a pattern is malformed.
//
// A pattern without glob characters is returned as-is even when the file does
// not exist, so the loader can report it as a missing source. An explicit path
// listed twice is returned twice. A glob match already returned by an earlier
// pattern is skipped, so overlapping globs do not load a file twice. A glob
// that matches nothing contributes nothing.
func DiscoverFiles(patterns ...string) ([]string, error) {
	var result []string
	seen := make(map[string]bool)

	add := func(path string) {
		seen[path] = true
		result = append(result, path)
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			add(pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}

		// Filter out directories.
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() || seen[match] {
				continue
			}
			add(match)
		}
	}

	return result, nil
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes a file through a temporary file in the same
// directory and renames it over path once write has succeeded.
//
// PARAMETERS:
//   - path: The final file path. Its directory must exist.
//   - write: Produces the file content.
//
// RETURNS:
//   - An error if writing, syncing or renaming fails. The target is then
//     left as it was before the call.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"."+uuid.NewString()[:8]+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	writer := bufio.NewWriter(tmp)
	if err := write(writer); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := writer.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return nil
}

// WriteBytesAtomic is WriteFileAtomic for content already in memory.
func WriteBytesAtomic(path string, data []byte) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveOutputFile copies an output file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//   - report: The report name, available as {report} in the name format.
//
// RETURNS:
//   - The path to the archived file ("" when archiving is disabled).
//   - An error if archival fails.
//
// NOTE: Output files are copied, not moved, so they remain in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath, report string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return "", nil
	}

	ext := filepath.Ext(filePath)
	name := GenerateOutputFileName(fm.ArchiveNameFormat, ext, map[string]string{
		"original": strings.TrimSuffix(filepath.Base(filePath), ext),
		"report":   report,
	})
	archivePath := filepath.Join(fm.ArchiveDir, name)

	if err := os.MkdirAll(fm.ArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {report}    - Report name
//               {original}  - Original file name (without extension)
//   - ext: The extension to ensure, including the dot (e.g., ".xml").
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "{report}_{timestamp}_{uuid}"
//   params: {"report": "trip-counts"}
//   output: "trip-counts_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xml"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// =============================================================================
// ISSUE LOG GENERATION
// =============================================================================

// IssueLogEntry represents a single issue log entry.
type IssueLogEntry struct {
	Timestamp    time.Time
	Severity     string
	Kind         string
	Source       string
	Message      string
	RecordNumber int
	FieldName    string
	FieldValue   string
}

// WriteIssueLog writes issue entries to a log file.
//
// PARAMETERS:
//   - entries: The entries to write.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the issue log file ("" when there are no entries).
//   - An error if writing fails.
func WriteIssueLog(entries []IssueLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join(outputDir, fmt.Sprintf("issue_log_%s.txt", timestamp))

	err := WriteFileAtomic(logPath, func(w io.Writer) error {
		var b strings.Builder

		fmt.Fprintf(&b, "Transit Payment Reports - Issue Log\n"+
			"Generated: %s\n"+
			"Total Issues: %d\n"+
			"================================================================================\n\n",
			time.Now().Format("2006-01-02 15:04:05"),
			len(entries))

		for i, entry := range entries {
			fmt.Fprintf(&b, "Issue #%d\n"+
				"  Timestamp:  %s\n"+
				"  Severity:   %s\n"+
				"  Kind:       %s\n"+
				"  Source:     %s\n"+
				"  Message:    %s\n",
				i+1,
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.Severity,
				entry.Kind,
				entry.Source,
				entry.Message)

			if entry.RecordNumber > 0 {
				fmt.Fprintf(&b, "  Record:     %d\n", entry.RecordNumber)
			}
			if entry.FieldName != "" {
				fmt.Fprintf(&b, "  Field:      %s\n", entry.FieldName)
			}
			if entry.FieldValue != "" {
				fmt.Fprintf(&b, "  Value:      %s\n", entry.FieldValue)
			}
			b.WriteString("\n")
		}

		b.WriteString("================================================================================\n" +
			"End of Issue Log\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write issue log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a report run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time

	PaymentFiles       []string
	Passengers         int
	Categories         int
	Routes             int
	Payments           int
	UnresolvedPayments int
	Issues             int

	Reports       []ReportInfo
	FailedReports []FailedReportInfo
}

// ReportInfo contains information about a successfully written report.
type ReportInfo struct {
	Name        string
	OutputFile  string
	Exports     []string
	ArchivePath string
	Rows        int
	ProcessTime time.Duration
}

// FailedReportInfo contains information about a failed report.
type FailedReportInfo struct {
	Name         string
	ErrorMessage string
}

// WriteSummaryLog writes a run summary to a log file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	timestamp := summary.StartTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("run_summary_%s.txt", timestamp))

	err := WriteFileAtomic(summaryPath, func(w io.Writer) error {
		var b strings.Builder

		duration := summary.EndTime.Sub(summary.StartTime)
		fmt.Fprintf(&b, "Transit Payment Reports - Run Summary\n"+
			"================================================================================\n\n"+
			"Run Information:\n"+
			"  Run ID:         %s\n"+
			"  Start Time:     %s\n"+
			"  End Time:       %s\n"+
			"  Duration:       %s\n\n"+
			"Statistics:\n"+
			"  Payment Files:       %d\n"+
			"  Passengers:          %d\n"+
			"  Categories:          %d\n"+
			"  Routes:              %d\n"+
			"  Payments:            %d\n"+
			"  Unresolved Payments: %d\n"+
			"  Integrity Issues:    %d\n"+
			"  Reports Written:     %d\n"+
			"  Reports Failed:      %d\n\n",
			summary.RunID,
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			duration.String(),
			len(summary.PaymentFiles),
			summary.Passengers,
			summary.Categories,
			summary.Routes,
			summary.Payments,
			summary.UnresolvedPayments,
			summary.Issues,
			len(summary.Reports),
			len(summary.FailedReports))

		if len(summary.PaymentFiles) > 0 {
			b.WriteString("Payment Files:\n")
			b.WriteString("--------------------------------------------------------------------------------\n")
			for _, f := range summary.PaymentFiles {
				fmt.Fprintf(&b, "  %s\n", f)
			}
			b.WriteString("\n")
		}

		if len(summary.Reports) > 0 {
			b.WriteString("Reports:\n")
			b.WriteString("--------------------------------------------------------------------------------\n")
			for _, r := range summary.Reports {
				fmt.Fprintf(&b, "  Report:       %s\n", r.Name)
				fmt.Fprintf(&b, "  Output:       %s\n", r.OutputFile)
				for _, e := range r.Exports {
					fmt.Fprintf(&b, "  Export:       %s\n", e)
				}
				if r.ArchivePath != "" {
					fmt.Fprintf(&b, "  Archive:      %s\n", r.ArchivePath)
				}
				fmt.Fprintf(&b, "  Rows:         %d\n", r.Rows)
				fmt.Fprintf(&b, "  Process Time: %s\n\n", r.ProcessTime.String())
			}
		}

		if len(summary.FailedReports) > 0 {
			b.WriteString("Failed Reports:\n")
			b.WriteString("--------------------------------------------------------------------------------\n")
			for _, f := range summary.FailedReports {
				fmt.Fprintf(&b, "  Report: %s\n", f.Name)
				fmt.Fprintf(&b, "  Error:  %s\n\n", f.ErrorMessage)
			}
		}

		b.WriteString("================================================================================\n" +
			"End of Summary\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
