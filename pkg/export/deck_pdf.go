package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/pitchstudio/deck-api/internal/models"
)

// DeckPDFExporter renders a deck into a text-only PDF, one page per slide.
// Layout visuals are out of scope; headline, subline and the structured
// content payload are rendered as plain text.
type DeckPDFExporter struct{}

// NewDeckPDFExporter constructs a deck PDF exporter.
func NewDeckPDFExporter() *DeckPDFExporter {
	return &DeckPDFExporter{}
}

// Render creates a PDF document for the project and its ordered slides.
func (e *DeckPDFExporter) Render(project *models.Project, slides []models.Slide) ([]byte, error) {
	if project == nil {
		return nil, fmt.Errorf("pdf requires a project")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 24)
	pdf.CellFormat(0, 16, project.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Version %d", project.CurrentVersion()), "", 1, "C", false, 0, "")
	if project.IsConfidential {
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(0, 8, "CONFIDENTIAL", "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	for _, slide := range slides {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 18)
		pdf.CellFormat(0, 12, slide.Headline, "", 1, "L", false, 0, "")
		if slide.Subline != "" {
			pdf.SetFont("Arial", "I", 12)
			pdf.CellFormat(0, 8, slide.Subline, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
		e.renderContent(pdf, slide)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render deck pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *DeckPDFExporter) renderContent(pdf *gofpdf.Fpdf, slide models.Slide) {
	pdf.SetFont("Arial", "", 12)
	switch {
	case len(slide.Content.Stats) > 0:
		for _, stat := range slide.Content.Stats {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(60, 9, stat.Value, "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 11)
			pdf.CellFormat(0, 9, stat.Label, "", 1, "L", false, 0, "")
		}
	case len(slide.Content.Bullets) > 0:
		for _, bullet := range slide.Content.Bullets {
			pdf.CellFormat(6, 7, "-", "", 0, "L", false, 0, "")
			pdf.MultiCell(0, 7, bullet, "", "L", false)
		}
	case slide.Content.Body != "":
		pdf.MultiCell(0, 7, slide.Content.Body, "", "L", false)
	}
}
