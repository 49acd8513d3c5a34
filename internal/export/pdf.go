package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

var (
	headerColor     = [3]int{40, 40, 40}
	headerTextColor = [3]int{255, 255, 255}
	bodyTextColor   = [3]int{50, 50, 50}
	stripeColor     = [3]int{240, 240, 240}
)

// pdfDoc wraps a gofpdf document with the font and text translation chosen
// for this exporter.
type pdfDoc struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (e *Exporter) newPDF(title string) *pdfDoc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	doc := &pdfDoc{pdf: pdf, family: "Arial", tr: pdf.UnicodeTranslatorFromDescriptor("")}

	if e.FontPath != "" {
		pdf.AddUTF8Font("Report", "", e.FontPath)
		pdf.AddUTF8Font("Report", "B", e.FontPath)
		pdf.AddUTF8Font("Report", "I", e.FontPath)
		doc.family = "Report"
		doc.tr = func(s string) string { return s }
	}

	generated := e.GeneratedAt.Format("2006-01-02 15:04")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(doc.family, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, doc.tr(fmt.Sprintf("%s | %s", title, generated)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont(doc.family, "B", 14)
	pdf.CellFormat(0, 12, doc.tr("  "+title), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	return doc
}

// table draws a header row and striped body rows.
func (d *pdfDoc) table(widths []float64, headers []string, rows [][]string) {
	pdf := d.pdf

	pdf.SetFont(d.family, "B", 10)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, d.tr(h), "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(d.family, "", 10)
	pdf.SetFillColor(stripeColor[0], stripeColor[1], stripeColor[2])
	for r, row := range rows {
		fill := r%2 == 1
		for i, cell := range row {
			align := "L"
			if _, err := strconv.Atoi(cell); err == nil && i > 0 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, d.tr(cell), "", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(rows) == 0 {
		pdf.SetFont(d.family, "I", 10)
		pdf.CellFormat(0, 8, d.tr("No data."), "", 1, "L", false, 0, "")
	}
}

func (d *pdfDoc) output(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF file: %w", err)
	}
	return nil
}

func (e *Exporter) tripCountsPDF(w io.Writer, rows []types.PassengerTrips) error {
	doc := e.newPDF("Passenger Trip Counts")

	table := tripCountsTable(rows)
	// Repeat the surname only on the first route of each passenger.
	previous := ""
	for i := range table {
		key := table[i][1]
		if key == previous {
			table[i][0], table[i][1] = "", ""
		}
		previous = key
	}

	doc.table([]float64{80, 35, 35, 35}, tripCountsHeaders, table)
	return doc.output(w)
}

func (e *Exporter) topRoutesPDF(w io.Writer, rows []types.MonthlyRouteRevenue) error {
	doc := e.newPDF("Monthly Top Routes")

	table := e.topRoutesTable(rows)
	widths := []float64{20, 18, 28, 32, 46, 46}
	doc.table(widths, topRoutesHeaders, table)
	return doc.output(w)
}
