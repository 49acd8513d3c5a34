// =============================================================================
// Transit Payment Reports - Sample Data
// =============================================================================
//
// This module writes a small, complete data set: three routes, three
// passengers in three categories and eight payments split over two payment
// files. It is the fastest way to see both reports end to end.
//
// FILES (in the chosen format):
//   routes, passengers, categories, payments1, payments2
//
// =============================================================================

package sample

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/csvparser"
	"github.com/ginjaninja78/transit-payment-reports/internal/loader"
	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/internal/xlsxparser"
	"github.com/ginjaninja78/transit-payment-reports/internal/xmlwriter"
	"github.com/ginjaninja78/transit-payment-reports/pkg/utils"
)

// File base names, without extension.
const (
	RoutesName     = "routes"
	PassengersName = "passengers"
	CategoriesName = "categories"
	Payments1Name  = "payments1"
	Payments2Name  = "payments2"
)

// Dataset returns the sample records. Payments holds both payment files
// concatenated; PaymentFiles splits them.
func Dataset() *types.Dataset {
	first, second := PaymentFiles()
	return &types.Dataset{
		Routes: []types.Route{
			{Number: 1, CurrentStop: "Центр", FinalStop: "Вокзал"},
			{Number: 5, CurrentStop: "Університет", FinalStop: "Аеропорт"},
			{Number: 10, CurrentStop: "Лікарня", FinalStop: "Парк"},
		},
		Passengers: []types.Passenger{
			{ID: 1, Surname: "Петренко", CategoryID: 1},
			{ID: 2, Surname: "Іваненко", CategoryID: 2},
			{ID: 3, Surname: "Коваленко", CategoryID: 3},
		},
		Categories: []types.Category{
			{ID: 1, Name: "Звичайний", TripCost: decimal.NewFromInt(8)},
			{ID: 2, Name: "Студент", TripCost: decimal.NewFromInt(4)},
			{ID: 3, Name: "Пенсіонер", TripCost: decimal.NewFromInt(2)},
		},
		Payments: append(append([]types.PaymentRecord{}, first...), second...),
	}
}

// PaymentFiles returns the contents of the two sample payment files.
func PaymentFiles() (first, second []types.PaymentRecord) {
	first = []types.PaymentRecord{
		payment("2024-01-10", 1, 1),
		payment("2024-01-15", 1, 1),
		payment("2024-01-20", 2, 5),
		payment("2024-02-05", 3, 10),
	}
	second = []types.PaymentRecord{
		payment("2024-02-10", 1, 5),
		payment("2024-02-15", 2, 5),
		payment("2024-03-05", 1, 10),
		payment("2024-03-10", 3, 1),
	}
	return first, second
}

func payment(date string, passenger, route int) types.PaymentRecord {
	d, _ := time.Parse("2006-01-02", date)
	return types.PaymentRecord{Date: d, PassengerID: passenger, RouteNumber: route}
}

// =============================================================================
// WRITING
// =============================================================================

// file is one sample file in every supported format.
type file struct {
	name    string
	doc     *xmlwriter.Document
	headers []string
	rows    [][]string
}

func files() []file {
	ds := Dataset()
	first, second := PaymentFiles()

	routeRows := make([][]string, 0, len(ds.Routes))
	for _, r := range ds.Routes {
		routeRows = append(routeRows, []string{strconv.Itoa(r.Number), r.CurrentStop, r.FinalStop})
	}
	passengerRows := make([][]string, 0, len(ds.Passengers))
	for _, p := range ds.Passengers {
		passengerRows = append(passengerRows, []string{strconv.Itoa(p.ID), p.Surname, strconv.Itoa(p.CategoryID)})
	}
	categoryRows := make([][]string, 0, len(ds.Categories))
	for _, c := range ds.Categories {
		categoryRows = append(categoryRows, []string{strconv.Itoa(c.ID), c.Name, c.TripCost.String()})
	}

	paymentHeaders := []string{"Date", "PassengerId", "RouteNumber"}
	return []file{
		{RoutesName, xmlwriter.RoutesDocument(ds.Routes), []string{"Number", "CurrentStop", "FinalStop"}, routeRows},
		{PassengersName, xmlwriter.PassengersDocument(ds.Passengers), []string{"Id", "Surname", "CategoryId"}, passengerRows},
		{CategoriesName, xmlwriter.CategoriesDocument(ds.Categories), []string{"Id", "Name", "TripCost"}, categoryRows},
		{Payments1Name, xmlwriter.PaymentsDocument(first), paymentHeaders, paymentRows(first)},
		{Payments2Name, xmlwriter.PaymentsDocument(second), paymentHeaders, paymentRows(second)},
	}
}

func paymentRows(payments []types.PaymentRecord) [][]string {
	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{p.Date.Format("2006-01-02"), strconv.Itoa(p.PassengerID), strconv.Itoa(p.RouteNumber)})
	}
	return rows
}

// Write writes the sample data set into dir.
//
// PARAMETERS:
//   - dir: The target directory. It is created if needed.
//   - format: "xml", "csv" or "xlsx".
//   - settings: The CSV delimiter used for "csv".
//   - force: Overwrite existing files. Without it, Write refuses to touch
//     a directory that already holds any of the sample files.
//
// RETURNS:
//   - The written paths in write order.
//   - An error if a file exists (without force) or cannot be written.
func Write(dir, format string, settings config.CSVSettings, force bool) ([]string, error) {
	switch format {
	case config.FormatXML, config.FormatCSV, config.FormatXLSX:
	default:
		return nil, fmt.Errorf("unsupported sample format %q", format)
	}

	fm := utils.NewFileManager(dir, "")
	if err := fm.EnsureDirectories(); err != nil {
		return nil, err
	}

	all := files()
	paths := make([]string, len(all))
	for i, f := range all {
		paths[i] = filepath.Join(dir, f.name+"."+format)
		if !force && utils.FileExists(paths[i]) {
			return nil, fmt.Errorf("%s already exists (use --force to overwrite)", paths[i])
		}
	}

	for i, f := range all {
		if err := utils.WriteFileAtomic(paths[i], func(w io.Writer) error { return f.encode(w, format, settings) }); err != nil {
			return nil, err
		}
	}

	return paths, nil
}

// Sources returns the loader sources of a sample set written by Write.
func Sources(dir, format string) loader.Sources {
	in := func(name string) string { return filepath.Join(dir, name+"."+format) }
	return loader.Sources{
		Passengers: in(PassengersName),
		Categories: in(CategoriesName),
		Routes:     in(RoutesName),
		Payments:   []string{in(Payments1Name), in(Payments2Name)},
	}
}

func (f file) encode(w io.Writer, format string, settings config.CSVSettings) error {
	switch format {
	case config.FormatCSV:
		return csvparser.Write(w, settings, f.headers, f.rows)
	case config.FormatXLSX:
		cells := make([][]interface{}, len(f.rows))
		for i, row := range f.rows {
			cells[i] = make([]interface{}, len(row))
			for j, v := range row {
				cells[i][j] = v
			}
		}
		return xlsxparser.Encode(w, xlsxparser.SheetData{Name: f.name, Headers: f.headers, Rows: cells})
	default:
		data, err := xmlwriter.Marshal(f.doc, xmlwriter.DefaultOptions())
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
}
