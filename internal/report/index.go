// =============================================================================
// Transit Payment Reports - Report Module
// =============================================================================
//
// This module computes the two reports from an in-memory dataset:
//
//   CountTrips        per passenger, the number of trips on each route
//   MonthlyTopRoutes  per calendar month, the route with the highest revenue
//
// Both are pure functions over read-only slices. They may run on separate
// goroutines against the same dataset.
//
// =============================================================================

package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

// Index resolves passenger and category references by id. It is read-only
// after NewIndex returns.
type Index struct {
	passengers map[int]types.Passenger
	categories map[int]types.Category
}

// NewIndex builds id lookups. When an id repeats the first entry wins; the
// loader already rejects duplicates inside one source.
func NewIndex(passengers []types.Passenger, categories []types.Category) *Index {
	idx := &Index{
		passengers: make(map[int]types.Passenger, len(passengers)),
		categories: make(map[int]types.Category, len(categories)),
	}
	for _, p := range passengers {
		if _, ok := idx.passengers[p.ID]; !ok {
			idx.passengers[p.ID] = p
		}
	}
	for _, c := range categories {
		if _, ok := idx.categories[c.ID]; !ok {
			idx.categories[c.ID] = c
		}
	}
	return idx
}

// Passenger returns the passenger with the given id.
func (idx *Index) Passenger(id int) (types.Passenger, bool) {
	p, ok := idx.passengers[id]
	return p, ok
}

// Category returns the category with the given id.
func (idx *Index) Category(id int) (types.Category, bool) {
	c, ok := idx.categories[id]
	return c, ok
}

// ResolveTripCost follows payment -> passenger -> category and returns the
// category's trip cost.
//
// RETURNS:
//   - The trip cost of the payment.
//   - A *types.UnresolvedReferenceError when the passenger or its category
//     does not exist.
func (idx *Index) ResolveTripCost(p types.PaymentRecord) (decimal.Decimal, error) {
	passenger, ok := idx.Passenger(p.PassengerID)
	if !ok {
		return decimal.Zero, &types.UnresolvedReferenceError{
			Kind: types.PassengerReference,
			ID:   p.PassengerID,
			From: fmt.Sprintf("payment on %s", p.Date.Format("2006-01-02")),
		}
	}

	category, ok := idx.Category(passenger.CategoryID)
	if !ok {
		return decimal.Zero, &types.UnresolvedReferenceError{
			Kind: types.CategoryReference,
			ID:   passenger.CategoryID,
			From: fmt.Sprintf("passenger %d", passenger.ID),
		}
	}

	return category.TripCost, nil
}
