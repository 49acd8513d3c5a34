// =============================================================================
// Transit Payment Reports - CSV Parser Module
// =============================================================================
//
// This module reads record files exported as CSV. The first row holds the
// field names (Id, Surname, CategoryId, ...); every following non-empty row
// is one record. The parser does not interpret values: it hands the loader
// a map of header -> raw value per row and leaves type conversion to the
// loader's strict field parsers.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab)
//   - Variable field counts per row (missing trailing cells read as "")
//   - Empty rows are skipped; row numbers keep their position in the file
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// Row is one data row of the file.
type Row struct {
	// Number is the 1-based index of the row among the data rows. The
	// header and empty rows are not counted.
	Number int

	// Fields maps header name to the trimmed cell value.
	Fields map[string]string
}

// CSVData represents a parsed CSV file.
type CSVData struct {
	// Headers contains the cleaned column headers.
	Headers []string

	// Rows contains the data rows in file order.
	Rows []Row

	// SourceFile is the path to the source CSV file.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV settings from the main configuration.
//
// RETURNS:
//   - The parsed rows, keyed by header.
//   - An error if the file cannot be opened or is not valid CSV.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader parses CSV content from an arbitrary reader.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := cleanHeaders(allRows[0])

	return &CSVData{
		Headers: headers,
		Rows:    extractDataRows(allRows[1:], headers),
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims header names and strips a UTF-8 byte order mark that
// spreadsheet exports like to prepend to the first cell.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts the rows after the header into maps.
func extractDataRows(rows [][]string, headers []string) []Row {
	dataRows := make([]Row, 0, len(rows))

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		r := Row{
			Number: len(dataRows) + 1,
			Fields: make(map[string]string, len(headers)),
		}

		for colIndex, header := range headers {
			if colIndex < len(row) {
				r.Fields[header] = strings.TrimSpace(row[colIndex])
			} else {
				r.Fields[header] = ""
			}
		}

		dataRows = append(dataRows, r)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WRITING
// =============================================================================

// Write emits headers and rows as CSV using the configured delimiter.
// It is the inverse of Parse and is used by the report exporter.
func Write(w io.Writer, settings config.CSVSettings, headers []string, rows [][]string) error {
	settingsReader := csv.NewReader(strings.NewReader(""))
	configureReader(settingsReader, settings)

	writer := csv.NewWriter(w)
	writer.Comma = settingsReader.Comma

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
