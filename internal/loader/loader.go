// =============================================================================
// Transit Payment Reports - Record Loader
// =============================================================================
//
// This module turns record files into typed, in-memory collections. It is the
// only place where raw text becomes integers, decimals and dates.
//
// SOURCE FORMATS (chosen by file extension):
//   .xml   <Passengers><Passenger Id="1"><Surname>..</Surname>...</Passengers>
//   .csv   header row Id,Surname,CategoryId then one record per row
//   .xlsx  same layout as CSV on the first worksheet
//
// PARSE POLICY:
//   Strict, for every field of every record kind. A required field that is
//   missing or empty, or that does not parse as its type, aborts the load
//   with a MalformedInputError. Duplicate keys inside one source and
//   negative trip costs are rejected the same way. Nothing is defaulted.
//
// =============================================================================

package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/csvparser"
	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/internal/xlsxparser"
)

// recordKind names the XML root and record element of a source.
type recordKind struct {
	Root    string
	Element string
}

var (
	passengersKind = recordKind{Root: "Passengers", Element: "Passenger"}
	categoriesKind = recordKind{Root: "Categories", Element: "Category"}
	routesKind     = recordKind{Root: "Routes", Element: "Route"}
	paymentsKind   = recordKind{Root: "PaymentRecords", Element: "PaymentRecord"}
)

// Sources lists the files of one run. Routes is optional.
type Sources struct {
	Passengers string
	Categories string
	Routes     string
	Payments   []string
}

// Loader reads record files. The zero value reads CSV with commas.
type Loader struct {
	csv config.CSVSettings
}

// New creates a Loader using the given CSV settings for .csv sources.
func New(settings config.CSVSettings) *Loader {
	return &Loader{csv: settings}
}

var defaultLoader = &Loader{}

// LoadPassengers loads passengers with the default settings.
func LoadPassengers(path string) ([]types.Passenger, error) {
	return defaultLoader.LoadPassengers(path)
}

// LoadCategories loads categories with the default settings.
func LoadCategories(path string) ([]types.Category, error) {
	return defaultLoader.LoadCategories(path)
}

// LoadRoutes loads routes with the default settings.
func LoadRoutes(path string) ([]types.Route, error) {
	return defaultLoader.LoadRoutes(path)
}

// LoadPayments loads and concatenates payment sources with the default settings.
func LoadPayments(paths ...string) ([]types.PaymentRecord, error) {
	return defaultLoader.LoadPayments(paths...)
}

// =============================================================================
// TYPED LOADERS
// =============================================================================

// LoadPassengers reads a passengers source.
func (l *Loader) LoadPassengers(path string) ([]types.Passenger, error) {
	records, err := l.read(path, passengersKind)
	if err != nil {
		return nil, err
	}

	passengers := make([]types.Passenger, 0, len(records))
	seen := make(map[int]bool, len(records))

	for _, rec := range records {
		id, err := rec.integer("Id")
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, rec.malformed("Id", fmt.Sprint(id), "duplicate key", nil)
		}
		seen[id] = true

		surname, err := rec.requiredText("Surname")
		if err != nil {
			return nil, err
		}
		categoryID, err := rec.integer("CategoryId")
		if err != nil {
			return nil, err
		}

		passengers = append(passengers, types.Passenger{ID: id, Surname: surname, CategoryID: categoryID})
	}

	return passengers, nil
}

// LoadCategories reads a categories source. The name may be given as
// <Name> or <n>; it is display text and may be empty.
func (l *Loader) LoadCategories(path string) ([]types.Category, error) {
	records, err := l.read(path, categoriesKind)
	if err != nil {
		return nil, err
	}

	categories := make([]types.Category, 0, len(records))
	seen := make(map[int]bool, len(records))

	for _, rec := range records {
		id, err := rec.integer("Id")
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, rec.malformed("Id", fmt.Sprint(id), "duplicate key", nil)
		}
		seen[id] = true

		cost, err := rec.money("TripCost")
		if err != nil {
			return nil, err
		}

		categories = append(categories, types.Category{
			ID:       id,
			Name:     rec.optionalText("Name", "n"),
			TripCost: cost,
		})
	}

	return categories, nil
}

// LoadRoutes reads a routes source.
func (l *Loader) LoadRoutes(path string) ([]types.Route, error) {
	records, err := l.read(path, routesKind)
	if err != nil {
		return nil, err
	}

	routes := make([]types.Route, 0, len(records))
	seen := make(map[int]bool, len(records))

	for _, rec := range records {
		number, err := rec.integer("Number")
		if err != nil {
			return nil, err
		}
		if seen[number] {
			return nil, rec.malformed("Number", fmt.Sprint(number), "duplicate key", nil)
		}
		seen[number] = true

		current, err := rec.requiredText("CurrentStop")
		if err != nil {
			return nil, err
		}
		final, err := rec.requiredText("FinalStop")
		if err != nil {
			return nil, err
		}

		routes = append(routes, types.Route{Number: number, CurrentStop: current, FinalStop: final})
	}

	return routes, nil
}

// LoadPayments reads one or more payment sources and concatenates them in
// argument order. Payments are never deduplicated.
func (l *Loader) LoadPayments(paths ...string) ([]types.PaymentRecord, error) {
	if len(paths) == 0 {
		return nil, &types.MissingSourceError{Err: fmt.Errorf("no payment sources given")}
	}

	var payments []types.PaymentRecord
	for _, path := range paths {
		records, err := l.read(path, paymentsKind)
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			date, err := rec.date("Date")
			if err != nil {
				return nil, err
			}
			passengerID, err := rec.integer("PassengerId")
			if err != nil {
				return nil, err
			}
			route, err := rec.integer("RouteNumber")
			if err != nil {
				return nil, err
			}

			payments = append(payments, types.PaymentRecord{
				Date:        date,
				PassengerID: passengerID,
				RouteNumber: route,
			})
		}
	}

	return payments, nil
}

// Load reads every source of a run. Routes are skipped when not given.
func (l *Loader) Load(sources Sources) (*types.Dataset, error) {
	var (
		ds  types.Dataset
		err error
	)

	if ds.Passengers, err = l.LoadPassengers(sources.Passengers); err != nil {
		return nil, err
	}
	if ds.Categories, err = l.LoadCategories(sources.Categories); err != nil {
		return nil, err
	}
	if sources.Routes != "" {
		if ds.Routes, err = l.LoadRoutes(sources.Routes); err != nil {
			return nil, err
		}
	}
	if ds.Payments, err = l.LoadPayments(sources.Payments...); err != nil {
		return nil, err
	}

	return &ds, nil
}

// =============================================================================
// FORMAT DISPATCH
// =============================================================================

// read opens path and returns its records in source order.
func (l *Loader) read(path string, kind recordKind) ([]record, error) {
	if path == "" {
		return nil, &types.MissingSourceError{Err: fmt.Errorf("no %s source configured", strings.ToLower(kind.Root))}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &types.MissingSourceError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &types.MissingSourceError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xml":
		file, err := os.Open(path)
		if err != nil {
			return nil, &types.MissingSourceError{Path: path, Err: err}
		}
		defer file.Close()
		return readXML(file, path, kind)

	case ".csv":
		data, err := csvparser.Parse(path, l.csv)
		if err != nil {
			return nil, newMalformedSource(path, "not a valid CSV document", err)
		}
		records := make([]record, 0, len(data.Rows))
		for _, row := range data.Rows {
			records = append(records, fromFields(path, row.Number, row.Fields))
		}
		return records, nil

	case ".xlsx":
		sheet, err := xlsxparser.Parse(path)
		if err != nil {
			return nil, newMalformedSource(path, "not a valid XLSX workbook", err)
		}
		records := make([]record, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			records = append(records, fromFields(path, row.Number, row.Fields))
		}
		return records, nil

	default:
		return nil, newMalformedSource(path, fmt.Sprintf("unsupported source format %q", ext), nil)
	}
}

func fromFields(source string, number int, fields map[string]string) record {
	rec := newRecord(source, number)
	for name, value := range fields {
		rec.set(name, value)
	}
	return rec
}

func newMalformedSource(source, reason string, err error) error {
	return &types.MalformedInputError{Source: source, Reason: reason, Err: err}
}
