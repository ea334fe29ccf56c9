package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Document describes a transcript-style PDF: a centered title, labelled
// info lines, a bordered table and trailing summary lines.
type Document struct {
	Title   string
	Info    []KeyValue
	Table   Dataset
	Summary []KeyValue
	Footer  string
}

// KeyValue is a labelled line rendered outside the table body.
type KeyValue struct {
	Key   string
	Value string
}

// PDFExporter renders transcript documents in landscape orientation.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render produces the PDF bytes for a document.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one table header")
	}
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(12, 15, 12)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Times", "B", 18)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pdf.SetFont("Times", "", 11)
	for _, line := range doc.Info {
		pdf.CellFormat(45, 6, line.Key+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Times", "B", 11)
		pdf.CellFormat(0, 6, line.Value, "", 1, "L", false, 0, "")
		pdf.SetFont("Times", "", 11)
	}
	if len(doc.Info) > 0 {
		pdf.Ln(4)
	}

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(doc.Table.Headers))

	pdf.SetFont("Times", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for _, header := range doc.Table.Headers {
		pdf.CellFormat(colWidth, 8, strings.ToUpper(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Times", "", 10)
	for _, row := range doc.Table.Rows {
		for i, header := range doc.Table.Headers {
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(doc.Summary) > 0 {
		pdf.Ln(5)
		for _, line := range doc.Summary {
			pdf.SetFont("Times", "", 11)
			pdf.CellFormat(55, 6, line.Key+":", "", 0, "L", false, 0, "")
			pdf.SetFont("Times", "B", 11)
			pdf.CellFormat(0, 6, line.Value, "", 1, "L", false, 0, "")
		}
	}

	if doc.Footer != "" {
		pdf.Ln(6)
		pdf.SetFont("Times", "I", 9)
		pdf.CellFormat(0, 6, doc.Footer, "", 1, "L", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
