package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 190.0

// Section is a titled table inside a Document.
type Section struct {
	Heading string
	Table   Dataset
	// Widths are relative column weights; nil spreads columns evenly.
	Widths []float64
}

// Document is a printable report: a title block, key/value facts and tables.
type Document struct {
	Title    string
	Subtitle string
	Facts    [][2]string
	Sections []Section
	Footer   string
}

// PDFExporter renders documents with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out doc on A4 portrait pages.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" && len(doc.Sections) == 0 {
		return nil, fmt.Errorf("pdf document is empty")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	if len(doc.Facts) > 0 {
		for _, fact := range doc.Facts {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(45, 6, tr(fact[0]), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 6, tr(fact[1]), "", 1, "", false, 0, "")
		}
		pdf.Ln(4)
	}

	for _, section := range doc.Sections {
		if len(section.Table.Headers) == 0 {
			continue
		}
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, tr(section.Heading), "", 1, "", false, 0, "")
		}
		widths := columnWidths(len(section.Table.Headers), section.Widths)

		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range section.Table.Headers {
			pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range section.Table.Rows {
			for i := range section.Table.Headers {
				var value string
				if i < len(row) {
					value = row[i]
				}
				pdf.CellFormat(widths[i], 7, tr(value), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if doc.Footer != "" {
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, tr(doc.Footer), "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns int, weights []float64) []float64 {
	widths := make([]float64, columns)
	var total float64
	if len(weights) == columns {
		for _, w := range weights {
			total += w
		}
	}
	for i := range widths {
		if total > 0 {
			widths[i] = pageWidth * weights[i] / total
		} else {
			widths[i] = pageWidth / float64(columns)
		}
	}
	return widths
}
