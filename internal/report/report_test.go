package report

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func pay(day string, passenger, route int) types.PaymentRecord {
	return types.PaymentRecord{Date: date(day), PassengerID: passenger, RouteNumber: route}
}

func cost(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleDataset is the data set written by the sample command.
func sampleDataset() ([]types.Passenger, []types.Category, [][]types.PaymentRecord) {
	passengers := []types.Passenger{
		{ID: 1, Surname: "Петренко", CategoryID: 1},
		{ID: 2, Surname: "Іваненко", CategoryID: 2},
		{ID: 3, Surname: "Коваленко", CategoryID: 3},
	}
	categories := []types.Category{
		{ID: 1, Name: "Звичайний", TripCost: cost("8")},
		{ID: 2, Name: "Студент", TripCost: cost("4")},
		{ID: 3, Name: "Пенсіонер", TripCost: cost("2")},
	}
	payments := [][]types.PaymentRecord{
		{
			pay("2024-01-10", 1, 1),
			pay("2024-01-15", 1, 1),
			pay("2024-01-20", 2, 5),
			pay("2024-02-05", 3, 10),
		},
		{
			pay("2024-02-10", 1, 5),
			pay("2024-02-15", 2, 5),
			pay("2024-03-05", 1, 10),
			pay("2024-03-10", 3, 1),
		},
	}
	return passengers, categories, payments
}

// =============================================================================
// TRIP COUNTS
// =============================================================================

func TestCountTrips_Sample(t *testing.T) {
	passengers, _, payments := sampleDataset()

	got := CountTrips(passengers, payments...)
	want := []types.PassengerTrips{
		{Surname: "Іваненко", PassengerID: 2, Routes: []types.RouteTripCount{{RouteNumber: 5, Count: 2}}},
		{Surname: "Коваленко", PassengerID: 3, Routes: []types.RouteTripCount{{RouteNumber: 1, Count: 1}, {RouteNumber: 10, Count: 1}}},
		{Surname: "Петренко", PassengerID: 1, Routes: []types.RouteTripCount{
			{RouteNumber: 1, Count: 2}, {RouteNumber: 5, Count: 1}, {RouteNumber: 10, Count: 1},
		}},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("CountTrips =\n%+v\nwant\n%+v", got, want)
	}
}

func TestCountTrips_SinglePassenger(t *testing.T) {
	passengers := []types.Passenger{{ID: 1, Surname: "A", CategoryID: 1}}
	payments := []types.PaymentRecord{pay("2024-01-05", 1, 7), pay("2024-01-20", 1, 7)}

	got := CountTrips(passengers, payments)
	if len(got) != 1 || len(got[0].Routes) != 1 || got[0].Routes[0] != (types.RouteTripCount{RouteNumber: 7, Count: 2}) {
		t.Errorf("got %+v", got)
	}
}

func TestCountTrips_ExcludesPassengersWithoutTrips(t *testing.T) {
	passengers := []types.Passenger{
		{ID: 1, Surname: "Active", CategoryID: 1},
		{ID: 2, Surname: "Idle", CategoryID: 1},
	}
	payments := []types.PaymentRecord{pay("2024-01-05", 1, 3), pay("2024-01-05", 99, 3)}

	got := CountTrips(passengers, payments)
	if len(got) != 1 || got[0].PassengerID != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestCountTrips_SurnameTieBreaksOnID(t *testing.T) {
	passengers := []types.Passenger{
		{ID: 9, Surname: "Shevchenko", CategoryID: 1},
		{ID: 4, Surname: "Shevchenko", CategoryID: 1},
		{ID: 5, Surname: "Bondar", CategoryID: 1},
		{ID: 6, Surname: "bondar", CategoryID: 1},
	}
	payments := []types.PaymentRecord{
		pay("2024-01-05", 9, 1), pay("2024-01-05", 4, 1),
		pay("2024-01-05", 5, 1), pay("2024-01-05", 6, 1),
	}

	got := CountTrips(passengers, payments)
	var order []int
	for _, p := range got {
		order = append(order, p.PassengerID)
	}
	// Ordinal comparison puts upper case before lower case.
	if want := []int{5, 4, 9, 6}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestCountTrips_Empty(t *testing.T) {
	if got := CountTrips(nil); len(got) != 0 {
		t.Errorf("got %+v", got)
	}
	passengers, _, _ := sampleDataset()
	if got := CountTrips(passengers); len(got) != 0 {
		t.Errorf("no payments should give no rows, got %+v", got)
	}
}

func TestCountTrips_TotalsMatchKnownPayments(t *testing.T) {
	passengers, _, payments := sampleDataset()
	extra := []types.PaymentRecord{pay("2024-04-01", 42, 1)}

	total := 0
	for _, row := range CountTrips(passengers, append(payments, extra)...) {
		total += row.TotalTrips()
		for i := 1; i < len(row.Routes); i++ {
			if row.Routes[i-1].RouteNumber >= row.Routes[i].RouteNumber {
				t.Errorf("routes of %d not strictly ascending: %+v", row.PassengerID, row.Routes)
			}
		}
	}
	if total != 8 {
		t.Errorf("total trips = %d, want 8", total)
	}
}

// =============================================================================
// MONTHLY TOP ROUTES
// =============================================================================

func TestIndex_Lookups(t *testing.T) {
	idx := NewIndex(
		[]types.Passenger{{ID: 1, Surname: "A", CategoryID: 1}, {ID: 1, Surname: "Duplicate", CategoryID: 2}},
		[]types.Category{{ID: 1, Name: "Regular", TripCost: cost("8")}},
	)

	if p, ok := idx.Passenger(1); !ok || p.Surname != "A" {
		t.Errorf("Passenger(1) = %+v, %v; want the first entry", p, ok)
	}
	if _, ok := idx.Passenger(2); ok {
		t.Error("Passenger(2) should not resolve")
	}
	if c, ok := idx.Category(1); !ok || c.Name != "Regular" {
		t.Errorf("Category(1) = %+v, %v", c, ok)
	}
	if _, ok := idx.Category(2); ok {
		t.Error("Category(2) should not resolve")
	}
}

func TestResolveTripCost(t *testing.T) {
	passengers := []types.Passenger{{ID: 1, Surname: "A", CategoryID: 1}, {ID: 2, Surname: "B", CategoryID: 7}}
	categories := []types.Category{{ID: 1, TripCost: cost("10.00")}}
	idx := NewIndex(passengers, categories)

	got, err := idx.ResolveTripCost(pay("2024-01-05", 1, 7))
	if err != nil || !got.Equal(cost("10")) {
		t.Errorf("ResolveTripCost = %s, %v", got, err)
	}

	tests := []struct {
		name    string
		payment types.PaymentRecord
		kind    types.ReferenceKind
		id      int
	}{
		{"unknown passenger", pay("2024-01-05", 3, 7), types.PassengerReference, 3},
		{"unknown category", pay("2024-01-05", 2, 7), types.CategoryReference, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idx.ResolveTripCost(tt.payment)
			var refErr *types.UnresolvedReferenceError
			if !errors.As(err, &refErr) {
				t.Fatalf("expected UnresolvedReferenceError, got %v", err)
			}
			if refErr.Kind != tt.kind || refErr.ID != tt.id {
				t.Errorf("got %s %d", refErr.Kind, refErr.ID)
			}
			if !errors.Is(err, types.ErrUnresolvedReference) {
				t.Error("should match ErrUnresolvedReference")
			}
		})
	}
}

func TestMonthlyTopRoutes_Sample(t *testing.T) {
	passengers, categories, payments := sampleDataset()

	got := MonthlyTopRoutes(passengers, categories, payments...)
	want := []struct {
		year, month, route int
		total              string
	}{
		{2024, 1, 1, "16.00"},
		{2024, 2, 5, "12.00"},
		{2024, 3, 10, "8.00"},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d months: %+v", len(got), got)
	}
	for i, w := range want {
		g := got[i]
		if g.Year != w.year || g.Month != w.month || g.RouteNumber != w.route || g.FormattedTotal() != w.total {
			t.Errorf("month %d = %d-%d route %d %s, want %d-%d route %d %s",
				i, g.Year, g.Month, g.RouteNumber, g.FormattedTotal(), w.year, w.month, w.route, w.total)
		}
	}
}

func TestMonthlyTopRoutes_SingleRoute(t *testing.T) {
	passengers := []types.Passenger{{ID: 1, Surname: "A", CategoryID: 1}}
	categories := []types.Category{{ID: 1, Name: "Standard", TripCost: cost("10.00")}}
	payments := []types.PaymentRecord{pay("2024-01-05", 1, 7), pay("2024-01-20", 1, 7)}

	got := MonthlyTopRoutes(passengers, categories, payments)
	if len(got) != 1 || got[0].RouteNumber != 7 || got[0].FormattedTotal() != "20.00" {
		t.Errorf("got %+v", got)
	}
}

func TestMonthlyTopRoutes_TieGoesToLowerRoute(t *testing.T) {
	passengers := []types.Passenger{{ID: 1, Surname: "A", CategoryID: 1}}
	categories := []types.Category{{ID: 1, TripCost: cost("2.50")}}
	payments := []types.PaymentRecord{pay("2024-05-01", 1, 12), pay("2024-05-02", 1, 3)}

	got := MonthlyTopRoutes(passengers, categories, payments)
	if len(got) != 1 || got[0].RouteNumber != 3 || got[0].FormattedTotal() != "2.50" {
		t.Errorf("got %+v", got)
	}
}

func TestMonthlyTopRoutes_DropsUnresolved(t *testing.T) {
	passengers := []types.Passenger{
		{ID: 1, Surname: "A", CategoryID: 1},
		{ID: 2, Surname: "B", CategoryID: 9},
	}
	categories := []types.Category{{ID: 1, TripCost: cost("1")}}
	payments := []types.PaymentRecord{
		pay("2024-01-05", 1, 1),
		pay("2024-02-05", 2, 1), // category 9 is unknown
		pay("2024-02-06", 5, 1), // passenger 5 is unknown
	}

	got, stats := MonthlyTopRoutesWithStats(passengers, categories, payments)
	if len(got) != 1 || got[0].Month != 1 {
		t.Errorf("a month with only unresolvable payments must be absent: %+v", got)
	}
	if stats.Payments != 3 || stats.Resolved != 1 || stats.Unresolved != 2 || len(stats.Dropped) != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Dropped[0].Kind != types.CategoryReference || stats.Dropped[1].Kind != types.PassengerReference {
		t.Errorf("dropped kinds = %s %s", stats.Dropped[0].Kind, stats.Dropped[1].Kind)
	}
}

func TestMonthlyTopRoutes_Empty(t *testing.T) {
	passengers, categories, _ := sampleDataset()
	got := MonthlyTopRoutes(passengers, categories)
	if got == nil || len(got) != 0 {
		t.Errorf("expected an empty, non-nil slice, got %#v", got)
	}
}

func TestMonthlyTopRoutes_MonthsAcrossYears(t *testing.T) {
	passengers := []types.Passenger{{ID: 1, Surname: "A", CategoryID: 1}}
	categories := []types.Category{{ID: 1, TripCost: cost("1.005")}}
	payments := []types.PaymentRecord{
		pay("2025-01-03", 1, 2),
		pay("2024-12-30", 1, 4),
		pay("2024-02-01", 1, 1),
	}

	got := MonthlyTopRoutes(passengers, categories, payments)
	if len(got) != 3 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Year != 2024 || got[0].Month != 2 || got[1].Month != 12 || got[2].Year != 2025 {
		t.Errorf("months out of order: %+v", got)
	}
	if got[0].FormattedTotal() != "1.01" {
		t.Errorf("FormattedTotal = %s, want 1.01", got[0].FormattedTotal())
	}
}

func TestAggregateMonthlyRevenue_SumsMatchResolvedCosts(t *testing.T) {
	passengers, categories, payments := sampleDataset()
	idx := NewIndex(passengers, categories)

	cells, stats := AggregateMonthlyRevenue(passengers, categories, payments...)

	sum := decimal.Zero
	for _, c := range cells {
		sum = sum.Add(c.TotalAmount)
	}
	want := decimal.Zero
	for _, source := range payments {
		for _, p := range source {
			c, err := idx.ResolveTripCost(p)
			if err != nil {
				t.Fatalf("sample payment unresolved: %v", err)
			}
			want = want.Add(c)
		}
	}
	if !sum.Equal(want) || stats.Unresolved != 0 {
		t.Errorf("sum of cells = %s, want %s (stats %+v)", sum, want, stats)
	}
	if len(cells) != 6 {
		t.Errorf("got %d cells, want 6", len(cells))
	}
}
