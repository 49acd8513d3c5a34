// =============================================================================
// Transit Payment Reports - Export Module
// =============================================================================
//
// This module renders the two reports in the formats offered next to the
// XML documents:
//
//   json  indented arrays, amounts as two-decimal strings
//   csv   one row per (passenger, route) or per month
//   xlsx  one worksheet per report
//   pdf   a printable table
//
// Amounts are never converted to floating point; every format receives the
// same two-decimal text the XML report carries.
//
// =============================================================================

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/csvparser"
	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/internal/xlsxparser"
)

// Exporter renders reports in the export formats.
type Exporter struct {
	// CSV holds the delimiter used for CSV exports.
	CSV config.CSVSettings

	// Routes adds stop names to route rows when a route is known.
	Routes map[int]types.Route

	// FontPath is a TrueType font for PDF output. The built-in PDF fonts
	// only cover Western European text; set this to render other scripts.
	FontPath string

	// GeneratedAt is printed in PDF footers.
	GeneratedAt time.Time
}

// New creates an Exporter. routes may be nil.
func New(settings config.CSVSettings, routes []types.Route) *Exporter {
	byNumber := make(map[int]types.Route, len(routes))
	for _, r := range routes {
		byNumber[r.Number] = r
	}
	return &Exporter{CSV: settings, Routes: byNumber, GeneratedAt: time.Now()}
}

// Extension returns the file extension for an export format.
func Extension(format string) string {
	return "." + format
}

// TripCounts writes the trip count report in the given format.
func (e *Exporter) TripCounts(format string, w io.Writer, rows []types.PassengerTrips) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, tripCountsJSON(rows))
	case config.FormatCSV:
		return csvparser.Write(w, e.CSV, tripCountsHeaders, tripCountsTable(rows))
	case config.FormatXLSX:
		return xlsxparser.Encode(w, xlsxparser.SheetData{
			Name:    "Trip Counts",
			Headers: tripCountsHeaders,
			Rows:    toCells(tripCountsTable(rows), 1, 2, 3),
		})
	case config.FormatPDF:
		return e.tripCountsPDF(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// MonthlyTopRoutes writes the monthly top route report in the given format.
func (e *Exporter) MonthlyTopRoutes(format string, w io.Writer, rows []types.MonthlyRouteRevenue) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, e.topRoutesJSON(rows))
	case config.FormatCSV:
		return csvparser.Write(w, e.CSV, topRoutesHeaders, e.topRoutesTable(rows))
	case config.FormatXLSX:
		return xlsxparser.Encode(w, xlsxparser.SheetData{
			Name:    "Monthly Top Routes",
			Headers: topRoutesHeaders,
			Rows:    toCells(e.topRoutesTable(rows), 0, 1, 2),
		})
	case config.FormatPDF:
		return e.topRoutesPDF(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// =============================================================================
// JSON
// =============================================================================

type routeTripsJSON struct {
	RouteNumber int `json:"routeNumber"`
	TripCount   int `json:"tripCount"`
}

type passengerTripsJSON struct {
	Surname     string           `json:"surname"`
	PassengerID int              `json:"passengerId"`
	TotalTrips  int              `json:"totalTrips"`
	Routes      []routeTripsJSON `json:"routes"`
}

type topRouteJSON struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	RouteNumber int    `json:"routeNumber"`
	TotalAmount string `json:"totalAmount"`
	CurrentStop string `json:"currentStop,omitempty"`
	FinalStop   string `json:"finalStop,omitempty"`
}

func tripCountsJSON(rows []types.PassengerTrips) []passengerTripsJSON {
	out := make([]passengerTripsJSON, 0, len(rows))
	for _, row := range rows {
		item := passengerTripsJSON{
			Surname:     row.Surname,
			PassengerID: row.PassengerID,
			TotalTrips:  row.TotalTrips(),
			Routes:      make([]routeTripsJSON, 0, len(row.Routes)),
		}
		for _, r := range row.Routes {
			item.Routes = append(item.Routes, routeTripsJSON{RouteNumber: r.RouteNumber, TripCount: r.Count})
		}
		out = append(out, item)
	}
	return out
}

func (e *Exporter) topRoutesJSON(rows []types.MonthlyRouteRevenue) []topRouteJSON {
	out := make([]topRouteJSON, 0, len(rows))
	for _, row := range rows {
		route := e.Routes[row.RouteNumber]
		out = append(out, topRouteJSON{
			Year:        row.Year,
			Month:       row.Month,
			RouteNumber: row.RouteNumber,
			TotalAmount: row.FormattedTotal(),
			CurrentStop: route.CurrentStop,
			FinalStop:   route.FinalStop,
		})
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}

// =============================================================================
// TABLES (CSV and XLSX)
// =============================================================================

var (
	tripCountsHeaders = []string{"Surname", "PassengerId", "RouteNumber", "TripCount"}
	topRoutesHeaders  = []string{"Year", "Month", "RouteNumber", "TotalAmount", "CurrentStop", "FinalStop"}
)

func tripCountsTable(rows []types.PassengerTrips) [][]string {
	var table [][]string
	for _, row := range rows {
		for _, r := range row.Routes {
			table = append(table, []string{
				row.Surname,
				strconv.Itoa(row.PassengerID),
				strconv.Itoa(r.RouteNumber),
				strconv.Itoa(r.Count),
			})
		}
	}
	return table
}

func (e *Exporter) topRoutesTable(rows []types.MonthlyRouteRevenue) [][]string {
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		route := e.Routes[row.RouteNumber]
		table = append(table, []string{
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Month),
			strconv.Itoa(row.RouteNumber),
			row.FormattedTotal(),
			route.CurrentStop,
			route.FinalStop,
		})
	}
	return table
}

// toCells converts the given columns to integers so they stay numeric in the
// workbook. Other columns, amounts included, are written as text.
func toCells(table [][]string, numeric ...int) [][]interface{} {
	isNumeric := make(map[int]bool, len(numeric))
	for _, col := range numeric {
		isNumeric[col] = true
	}

	out := make([][]interface{}, len(table))
	for i, row := range table {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
			if isNumeric[j] {
				if n, err := strconv.Atoi(v); err == nil {
					cells[j] = n
				}
			}
		}
		out[i] = cells
	}
	return out
}
