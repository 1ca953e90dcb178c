// Package pdfgen рендерит текст решения в загружаемый PDF-документ.
package pdfgen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Renderer превращает текст решения в PDF.
type Renderer struct{}

// New создаёт Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render собирает PDF: заголовок, исходный вопрос (если есть) и решение.
// Возвращает готовые байты документа.
func (r *Renderer) Render(question, solution string) ([]byte, error) {
	const op = "pdfgen.Render"

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "SOLVEM8 Solution", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if strings.TrimSpace(question) != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Assignment", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		writeBlock(pdf, question)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Solution", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	writeBlock(pdf, solution)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}

// writeBlock печатает многострочный текст, перенося длинные строки.
func writeBlock(pdf *fpdf.Fpdf, text string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(4)
			continue
		}
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
	}
}
