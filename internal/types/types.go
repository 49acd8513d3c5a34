// =============================================================================
// Transit Payment Reports - Shared Types
// =============================================================================
//
// This package contains the record types shared by the loader, the report
// pipelines and the serializers. Keeping them here avoids import cycles:
//   - loader      produces Passenger, Category, Route, PaymentRecord
//   - report      consumes them and produces PassengerTrips, MonthlyRouteRevenue
//   - xmlwriter   and export render the derived types
//
// All records are plain values. Once loaded they are never mutated.
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REFERENCE RECORDS
// =============================================================================

// Route is a transit route. Routes are unique by Number.
type Route struct {
	Number      int
	CurrentStop string
	FinalStop   string
}

// Passenger is a registered rider. CategoryID references a Category by id.
type Passenger struct {
	ID         int
	Surname    string
	CategoryID int
}

// Category classifies passengers and fixes the cost of a single trip.
type Category struct {
	ID   int
	Name string

	// TripCost is never negative; the loader rejects negative values.
	TripCost decimal.Decimal
}

// PaymentRecord is one trip event. Records are not unique: the same trip
// appearing in two payment sources counts twice.
type PaymentRecord struct {
	Date        time.Time
	PassengerID int
	RouteNumber int
}

// YearMonth returns the calendar year and month of the payment, taken from
// the date as written with no timezone conversion.
func (p PaymentRecord) YearMonth() (int, int) {
	return p.Date.Year(), int(p.Date.Month())
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is everything one report run reads. Categories and Routes may be
// empty when their sources were not requested.
type Dataset struct {
	Passengers []Passenger
	Categories []Category
	Routes     []Route
	Payments   []PaymentRecord
}

// =============================================================================
// DERIVED RECORDS
// =============================================================================

// RouteTripCount is the number of trips one passenger made on one route.
type RouteTripCount struct {
	RouteNumber int
	Count       int
}

// PassengerTrips is one element of the trip count report.
type PassengerTrips struct {
	Surname     string
	PassengerID int

	// Routes is strictly ascending by RouteNumber and never empty.
	Routes []RouteTripCount
}

// TotalTrips sums the trip counts over all routes.
func (p PassengerTrips) TotalTrips() int {
	total := 0
	for _, r := range p.Routes {
		total += r.Count
	}
	return total
}

// MonthlyRouteRevenue is the revenue of one route in one calendar month.
// It is both the grouping cell of the monthly aggregation and the element
// type of the top route report.
type MonthlyRouteRevenue struct {
	Year        int
	Month       int
	RouteNumber int
	TotalAmount decimal.Decimal
}

// FormattedTotal renders TotalAmount with exactly two decimal digits.
func (m MonthlyRouteRevenue) FormattedTotal() string {
	return m.TotalAmount.StringFixed(2)
}
