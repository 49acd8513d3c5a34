package report

import (
	"sort"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

// CountTrips counts, for every passenger, the payments made on each route.
//
// Payment sources are concatenated; identical records count separately.
// Passengers with no payments are left out, as are payments whose passenger
// is unknown. Routes ascend by number. Passengers ascend by surname compared
// byte by byte, then by id.
func CountTrips(passengers []types.Passenger, payments ...[]types.PaymentRecord) []types.PassengerTrips {
	counts := make(map[int]map[int]int, len(passengers))
	for _, p := range passengers {
		counts[p.ID] = nil
	}

	for _, source := range payments {
		for _, pay := range source {
			byRoute, known := counts[pay.PassengerID]
			if !known {
				continue
			}
			if byRoute == nil {
				byRoute = make(map[int]int)
				counts[pay.PassengerID] = byRoute
			}
			byRoute[pay.RouteNumber]++
		}
	}

	result := make([]types.PassengerTrips, 0, len(passengers))
	seen := make(map[int]bool, len(passengers))

	for _, p := range passengers {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		byRoute := counts[p.ID]
		if len(byRoute) == 0 {
			continue
		}

		routes := make([]types.RouteTripCount, 0, len(byRoute))
		for number, n := range byRoute {
			routes = append(routes, types.RouteTripCount{RouteNumber: number, Count: n})
		}
		sort.Slice(routes, func(i, j int) bool {
			return routes[i].RouteNumber < routes[j].RouteNumber
		})

		result = append(result, types.PassengerTrips{
			Surname:     p.Surname,
			PassengerID: p.ID,
			Routes:      routes,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Surname != result[j].Surname {
			return result[i].Surname < result[j].Surname
		}
		return result[i].PassengerID < result[j].PassengerID
	})

	return result
}
