package cmd

import (
	"fmt"
	"strconv"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/pkg/console"
)

// printTripCounts renders the trip count report, one row per passenger and
// route.
func printTripCounts(out *console.Console, rows []types.PassengerTrips) {
	var table [][]string
	for _, p := range rows {
		for i, r := range p.Routes {
			surname, id := p.Surname, strconv.Itoa(p.PassengerID)
			if i > 0 {
				surname, id = "", ""
			}
			table = append(table, []string{surname, id, strconv.Itoa(r.RouteNumber), strconv.Itoa(r.Count)})
		}
	}
	out.Table("Task A: trips per passenger and route",
		[]string{"Surname", "Id", "Route", "Trips"}, table)
}

// printMonthlyTopRoutes renders the monthly top route report with the route
// stops when routes were loaded.
func printMonthlyTopRoutes(out *console.Console, rows []types.MonthlyRouteRevenue, routes []types.Route) {
	stops := make(map[int]string, len(routes))
	for _, r := range routes {
		stops[r.Number] = r.CurrentStop + " - " + r.FinalStop
	}

	table := make([][]string, 0, len(rows))
	for _, m := range rows {
		table = append(table, []string{
			fmt.Sprintf("%04d-%02d", m.Year, m.Month),
			strconv.Itoa(m.RouteNumber),
			stops[m.RouteNumber],
			m.FormattedTotal(),
		})
	}
	out.Table("Task B: top route per month",
		[]string{"Month", "Route", "Stops", "Total"}, table)
}
