package xmlwriter

import (
	"strconv"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

// Record documents use the same shapes the loader reads. The sample command
// writes its data set with them.

// PassengersDocument builds a <Passengers> source document.
func PassengersDocument(passengers []types.Passenger) *Document {
	root := NewElement("Passengers")
	for _, p := range passengers {
		root = root.Append(NewElement("Passenger", IntAttr("Id", p.ID)).Append(
			TextElement("Surname", p.Surname),
			TextElement("CategoryId", strconv.Itoa(p.CategoryID)),
		))
	}
	return &Document{Root: root}
}

// CategoriesDocument builds a <Categories> source document.
func CategoriesDocument(categories []types.Category) *Document {
	root := NewElement("Categories")
	for _, c := range categories {
		category := NewElement("Category", IntAttr("Id", c.ID))
		if c.Name != "" {
			category = category.Append(TextElement("Name", c.Name))
		}
		root = root.Append(category.Append(TextElement("TripCost", c.TripCost.String())))
	}
	return &Document{Root: root}
}

// RoutesDocument builds a <Routes> source document.
func RoutesDocument(routes []types.Route) *Document {
	root := NewElement("Routes")
	for _, r := range routes {
		root = root.Append(NewElement("Route", IntAttr("Number", r.Number)).Append(
			TextElement("CurrentStop", r.CurrentStop),
			TextElement("FinalStop", r.FinalStop),
		))
	}
	return &Document{Root: root}
}

// PaymentsDocument builds a <PaymentRecords> source document. Dates are
// written as calendar dates.
func PaymentsDocument(payments []types.PaymentRecord) *Document {
	root := NewElement("PaymentRecords")
	for _, p := range payments {
		root = root.Append(NewElement("PaymentRecord").Append(
			TextElement("Date", p.Date.Format("2006-01-02")),
			TextElement("PassengerId", strconv.Itoa(p.PassengerID)),
			TextElement("RouteNumber", strconv.Itoa(p.RouteNumber)),
		))
	}
	return &Document{Root: root}
}
