package report

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

// Stats describes how many payments the monthly aggregation used.
type Stats struct {
	Payments   int
	Resolved   int
	Unresolved int

	// Dropped holds the reference errors of unresolved payments, in input order.
	Dropped []*types.UnresolvedReferenceError
}

type monthKey struct {
	year, month int
}

type cellKey struct {
	monthKey
	route int
}

// AggregateMonthlyRevenue sums the trip cost of every resolvable payment per
// (year, month, route). Cells are ordered by year, month, then route number.
// Unresolvable payments are skipped and reported in Stats.
func AggregateMonthlyRevenue(passengers []types.Passenger, categories []types.Category, payments ...[]types.PaymentRecord) ([]types.MonthlyRouteRevenue, Stats) {
	idx := NewIndex(passengers, categories)

	var stats Stats
	totals := make(map[cellKey]decimal.Decimal)

	for _, source := range payments {
		for _, pay := range source {
			stats.Payments++

			cost, err := idx.ResolveTripCost(pay)
			if err != nil {
				stats.Unresolved++
				var refErr *types.UnresolvedReferenceError
				if errors.As(err, &refErr) {
					stats.Dropped = append(stats.Dropped, refErr)
				}
				continue
			}
			stats.Resolved++

			year, month := pay.YearMonth()
			key := cellKey{monthKey{year, month}, pay.RouteNumber}
			totals[key] = totals[key].Add(cost)
		}
	}

	cells := make([]types.MonthlyRouteRevenue, 0, len(totals))
	for key, total := range totals {
		cells = append(cells, types.MonthlyRouteRevenue{
			Year:        key.year,
			Month:       key.month,
			RouteNumber: key.route,
			TotalAmount: total,
		})
	}
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.RouteNumber < b.RouteNumber
	})

	return cells, stats
}

// MonthlyTopRoutes returns, for every month with at least one resolvable
// payment, the route with the highest total. On a tie the lower route number
// wins. Months ascend by year and month.
func MonthlyTopRoutes(passengers []types.Passenger, categories []types.Category, payments ...[]types.PaymentRecord) []types.MonthlyRouteRevenue {
	top, _ := MonthlyTopRoutesWithStats(passengers, categories, payments...)
	return top
}

// MonthlyTopRoutesWithStats is MonthlyTopRoutes plus the aggregation stats.
func MonthlyTopRoutesWithStats(passengers []types.Passenger, categories []types.Category, payments ...[]types.PaymentRecord) ([]types.MonthlyRouteRevenue, Stats) {
	cells, stats := AggregateMonthlyRevenue(passengers, categories, payments...)
	return TopPerMonth(cells), stats
}

// TopPerMonth picks the highest cell of each month from cells ordered as
// AggregateMonthlyRevenue returns them.
func TopPerMonth(cells []types.MonthlyRouteRevenue) []types.MonthlyRouteRevenue {
	var top []types.MonthlyRouteRevenue

	for _, cell := range cells {
		n := len(top)
		if n > 0 && top[n-1].Year == cell.Year && top[n-1].Month == cell.Month {
			// Routes arrive ascending, so only a strictly greater total replaces.
			if cell.TotalAmount.GreaterThan(top[n-1].TotalAmount) {
				top[n-1] = cell
			}
			continue
		}
		top = append(top, cell)
	}

	if top == nil {
		top = []types.MonthlyRouteRevenue{}
	}
	return top
}
