package xmlwriter

import (
	"bytes"
	"fmt"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

// ReportKind identifies one of the two report documents.
type ReportKind string

const (
	TripCountsReport       ReportKind = "trip-counts"
	MonthlyTopRoutesReport ReportKind = "monthly-top-routes"
)

// TripCountsDocument builds the trip count report:
//
//	<PassengerTripCounts>
//	  <Passenger Surname="Petrenko" Id="1">
//	    <Route Number="1" TripCount="2" />
//	  </Passenger>
//	</PassengerTripCounts>
//
// Rows are written in the order given.
func TripCountsDocument(rows []types.PassengerTrips) *Document {
	root := NewElement("PassengerTripCounts")

	for _, row := range rows {
		passenger := NewElement("Passenger",
			Attr("Surname", row.Surname),
			IntAttr("Id", row.PassengerID),
		)
		for _, route := range row.Routes {
			passenger = passenger.Append(NewElement("Route",
				IntAttr("Number", route.RouteNumber),
				IntAttr("TripCount", route.Count),
			))
		}
		root = root.Append(passenger)
	}

	return &Document{Root: root}
}

// MonthlyTopRoutesDocument builds the monthly top route report:
//
//	<MonthlyTopRoutes>
//	  <Month Year="2024" Month="1">
//	    <TopRoute Number="1" TotalAmount="16.00" />
//	  </Month>
//	</MonthlyTopRoutes>
//
// Amounts always carry two decimal digits.
func MonthlyTopRoutesDocument(rows []types.MonthlyRouteRevenue) *Document {
	root := NewElement("MonthlyTopRoutes")

	for _, row := range rows {
		root = root.Append(NewElement("Month",
			IntAttr("Year", row.Year),
			IntAttr("Month", row.Month),
		).Append(NewElement("TopRoute",
			IntAttr("Number", row.RouteNumber),
			Attr("TotalAmount", row.FormattedTotal()),
		)))
	}

	return &Document{Root: root}
}

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD returns an XSD schema describing the given report document.
func GenerateXSD(kind ReportKind) ([]byte, error) {
	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	switch kind {
	case TripCountsReport:
		buffer.WriteString(`  <xs:element name="PassengerTripCounts">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="Passenger" minOccurs="0" maxOccurs="unbounded">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="Route" minOccurs="1" maxOccurs="unbounded">
                <xs:complexType>
                  <xs:attribute name="Number" type="xs:integer" use="required"/>
                  <xs:attribute name="TripCount" type="xs:positiveInteger" use="required"/>
                </xs:complexType>
              </xs:element>
            </xs:sequence>
            <xs:attribute name="Surname" type="xs:string" use="required"/>
            <xs:attribute name="Id" type="xs:integer" use="required"/>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
`)

	case MonthlyTopRoutesReport:
		buffer.WriteString(`  <xs:simpleType name="Amount">
    <xs:restriction base="xs:decimal">
      <xs:fractionDigits value="2"/>
      <xs:minInclusive value="0"/>
    </xs:restriction>
  </xs:simpleType>

  <xs:element name="MonthlyTopRoutes">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="Month" minOccurs="0" maxOccurs="unbounded">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="TopRoute">
                <xs:complexType>
                  <xs:attribute name="Number" type="xs:integer" use="required"/>
                  <xs:attribute name="TotalAmount" type="Amount" use="required"/>
                </xs:complexType>
              </xs:element>
            </xs:sequence>
            <xs:attribute name="Year" type="xs:integer" use="required"/>
            <xs:attribute name="Month" use="required">
              <xs:simpleType>
                <xs:restriction base="xs:integer">
                  <xs:minInclusive value="1"/>
                  <xs:maxInclusive value="12"/>
                </xs:restriction>
              </xs:simpleType>
            </xs:attribute>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
`)

	default:
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}

	buffer.WriteString("</xs:schema>\n")
	return buffer.Bytes(), nil
}
