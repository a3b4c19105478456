package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFont      = "Helvetica"
	pdfRowHeight = 6.5
)

// PDF lays the dataset out as an A4 landscape table. The header row is
// repeated on every page and pages are numbered in the footer.
type PDF struct{}

func (PDF) ContentType() string { return "application/pdf" }

func (PDF) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errNoHeaders
	}
	doc := gofpdf.New("L", "mm", "A4", "")
	doc.SetMargins(12, 12, 12)
	doc.SetAutoPageBreak(true, 14)
	doc.AliasNbPages("")

	width, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	col := (width - left - right) / float64(len(data.Headers))

	doc.SetHeaderFunc(func() {
		if data.Title != "" && doc.PageNo() == 1 {
			doc.SetFont(pdfFont, "B", 13)
			doc.CellFormat(0, 9, data.Title, "", 1, "L", false, 0, "")
			doc.Ln(2)
		}
		doc.SetFont(pdfFont, "B", 9)
		doc.SetFillColor(225, 230, 240)
		for _, h := range data.Headers {
			doc.CellFormat(col, pdfRowHeight+1, h, "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-10)
		doc.SetFont(pdfFont, "I", 7)
		doc.CellFormat(0, 5, fmt.Sprintf("%d / {nb}", doc.PageNo()), "", 0, "R", false, 0, "")
	})

	doc.AddPage()
	doc.SetFont(pdfFont, "", 8)
	for i, row := range data.Rows {
		shade := i%2 == 1
		doc.SetFillColor(246, 246, 246)
		for _, cell := range data.record(row) {
			doc.CellFormat(col, pdfRowHeight, cell, "1", 0, "L", shade, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: pdf: %w", err)
	}
	return buf.Bytes(), nil
}
