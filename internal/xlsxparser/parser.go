// =============================================================================
// Transit Payment Reports - XLSX Parser Module
// =============================================================================
//
// This module reads record files kept as Excel workbooks. The layout mirrors
// the CSV sources: row 1 of the sheet holds the field names, each following
// non-empty row is one record.
//
//   | Id | Surname   | CategoryId |
//   |----|-----------|------------|
//   | 1  | Petrenko  | 1          |
//   | 2  | Ivanenko  | 2          |
//
// Cell values are read as displayed text; the loader converts them.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// SHEET DATA STRUCTURE
// =============================================================================

// Row is one data row of the sheet.
type Row struct {
	// Number is the 1-based index of the row among the data rows. The
	// header and empty rows are not counted.
	Number int

	// Fields maps header name to the trimmed cell text.
	Fields map[string]string
}

// Sheet holds the parsed content of one worksheet.
type Sheet struct {
	// Name is the worksheet name.
	Name string

	// Headers are the cleaned names from row 1.
	Headers []string

	// Rows are the data rows in sheet order.
	Rows []Row

	// SourceFile is the workbook path.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first worksheet of the workbook at path.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//
// RETURNS:
//   - The parsed sheet.
//   - An error if the workbook cannot be opened or has no sheets.
func Parse(path string) (*Sheet, error) {
	return ParseSheet(path, "")
}

// ParseSheet reads the named worksheet; an empty name selects the first one.
func ParseSheet(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	sheet := &Sheet{
		Name:       sheetName,
		Headers:    cleanHeaders(rows[0]),
		SourceFile: path,
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		r := Row{Number: len(sheet.Rows) + 1, Fields: make(map[string]string, len(sheet.Headers))}
		for col, header := range sheet.Headers {
			if col < len(row) {
				r.Fields[header] = strings.TrimSpace(row[col])
			} else {
				r.Fields[header] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, r)
	}

	return sheet, nil
}

// cleanHeaders trims header names and fills blanks with a column label.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = h
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty cells.
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

// SheetData is one worksheet to write.
type SheetData struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Write creates a workbook file at path with the given sheets.
func Write(path string, sheets ...SheetData) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := Encode(file, sheets...); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Encode writes a workbook with the given sheets in order to w. The default
// "Sheet1" is renamed to the first sheet's name.
func Encode(w io.Writer, sheets ...SheetData) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", s.Name, err)
		}

		if err := writeRow(f, s.Name, 1, toInterfaces(s.Headers)); err != nil {
			return err
		}
		for r, row := range s.Rows {
			if err := writeRow(f, s.Name, r+2, row); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
