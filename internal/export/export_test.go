package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transit-payment-reports/internal/config"
	"github.com/ginjaninja78/transit-payment-reports/internal/csvparser"
	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

var (
	tripRows = []types.PassengerTrips{
		{Surname: "Ivanenko", PassengerID: 2, Routes: []types.RouteTripCount{{RouteNumber: 5, Count: 2}}},
		{Surname: "Petrenko", PassengerID: 1, Routes: []types.RouteTripCount{
			{RouteNumber: 1, Count: 2}, {RouteNumber: 10, Count: 1},
		}},
	}
	topRows = []types.MonthlyRouteRevenue{
		{Year: 2024, Month: 1, RouteNumber: 1, TotalAmount: decimal.RequireFromString("16")},
		{Year: 2024, Month: 2, RouteNumber: 5, TotalAmount: decimal.RequireFromString("12.5")},
	}
	routes = []types.Route{{Number: 1, CurrentStop: "Centre", FinalStop: "Station"}}
)

func TestTripCounts_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(config.CSVSettings{}, nil).TripCounts(config.FormatJSON, &buf, tripRows); err != nil {
		t.Fatalf("TripCounts: %v", err)
	}

	var got []struct {
		Surname     string `json:"surname"`
		PassengerID int    `json:"passengerId"`
		TotalTrips  int    `json:"totalTrips"`
		Routes      []struct {
			RouteNumber int `json:"routeNumber"`
			TripCount   int `json:"tripCount"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 || got[1].TotalTrips != 3 || got[1].Routes[1].RouteNumber != 10 {
		t.Errorf("got %+v", got)
	}
}

func TestMonthlyTopRoutes_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(config.CSVSettings{}, routes).MonthlyTopRoutes(config.FormatJSON, &buf, topRows); err != nil {
		t.Fatalf("MonthlyTopRoutes: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"totalAmount": "16.00"`, `"totalAmount": "12.50"`, `"currentStop": "Centre"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON lacks %s:\n%s", want, out)
		}
	}
	if strings.Count(out, "currentStop") != 1 {
		t.Errorf("unknown routes should omit stops:\n%s", out)
	}
}

func TestExports_CSV(t *testing.T) {
	settings := config.CSVSettings{Delimiter: ";"}
	exp := New(settings, routes)

	var buf bytes.Buffer
	if err := exp.TripCounts(config.FormatCSV, &buf, tripRows); err != nil {
		t.Fatalf("TripCounts: %v", err)
	}
	data, err := csvparser.ParseReader(&buf, settings)
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if len(data.Rows) != 3 || data.Rows[2].Fields["RouteNumber"] != "10" || data.Rows[2].Fields["Surname"] != "Petrenko" {
		t.Errorf("rows = %+v", data.Rows)
	}

	buf.Reset()
	if err := exp.MonthlyTopRoutes(config.FormatCSV, &buf, topRows); err != nil {
		t.Fatalf("MonthlyTopRoutes: %v", err)
	}
	data, err = csvparser.ParseReader(&buf, settings)
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if data.Rows[0].Fields["TotalAmount"] != "16.00" || data.Rows[0].Fields["FinalStop"] != "Station" {
		t.Errorf("rows = %+v", data.Rows)
	}
}

func TestExports_BinaryFormats(t *testing.T) {
	exp := New(config.CSVSettings{}, routes)

	tests := []struct {
		name   string
		format string
		magic  string
	}{
		{"xlsx", config.FormatXLSX, "PK"},
		{"pdf", config.FormatPDF, "%PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a, b bytes.Buffer
			if err := exp.TripCounts(tt.format, &a, tripRows); err != nil {
				t.Fatalf("TripCounts: %v", err)
			}
			if err := exp.MonthlyTopRoutes(tt.format, &b, nil); err != nil {
				t.Fatalf("MonthlyTopRoutes: %v", err)
			}
			if !strings.HasPrefix(a.String(), tt.magic) || !strings.HasPrefix(b.String(), tt.magic) {
				t.Errorf("output does not start with %q", tt.magic)
			}
		})
	}
}

func TestExports_UnknownFormat(t *testing.T) {
	exp := New(config.CSVSettings{}, nil)
	if err := exp.TripCounts("docx", &bytes.Buffer{}, tripRows); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := exp.MonthlyTopRoutes(config.FormatXML, &bytes.Buffer{}, topRows); err == nil {
		t.Error("xml is not an export format")
	}
}

func TestToCells(t *testing.T) {
	cells := toCells([][]string{{"007", "12", "16.00"}}, 1, 2)
	if cells[0][0] != "007" || cells[0][1] != 12 || cells[0][2] != "16.00" {
		t.Errorf("cells = %#v", cells)
	}
}
