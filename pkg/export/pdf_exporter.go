package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// OfficialsSheet describes the content of a match officials sheet.
type OfficialsSheet struct {
	Competition string
	HomeTeam    string
	AwayTeam    string
	Venue       string
	KickoffAt   string
	Slots       []OfficialsSheetRow
	Notes       string
}

// OfficialsSheetRow is one slot line on the sheet.
type OfficialsSheetRow struct {
	Slot     string
	Referee  string
	License  string
	City     string
	Response string
}

// RenderOfficialsSheet produces the one-page delegation sheet handed to
// match officials.
func (e *PDFExporter) RenderOfficialsSheet(sheet OfficialsSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "MATCH OFFICIALS SHEET", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 11)
	header := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(40, 7, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, value, "", 1, "", false, 0, "")
	}
	header("Competition", sheet.Competition)
	header("Match", fmt.Sprintf("%s vs %s", sheet.HomeTeam, sheet.AwayTeam))
	header("Venue", sheet.Venue)
	header("Tip-off", sheet.KickoffAt)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{35, 60, 30, 35, 20}
	titles := []string{"Slot", "Referee", "License", "City", "Response"}
	for i, t := range titles {
		pdf.CellFormat(widths[i], 8, t, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range sheet.Slots {
		cells := []string{row.Slot, row.Referee, row.License, row.City, row.Response}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if sheet.Notes != "" {
		pdf.Ln(5)
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(0, 6, "Notes: "+sheet.Notes, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render officials sheet: %w", err)
	}
	return buf.Bytes(), nil
}
