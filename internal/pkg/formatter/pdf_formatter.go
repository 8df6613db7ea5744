package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/futig/mcq-reasoner/internal/entity"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	pdfFontName = "DejaVuSans"

	// runtime layout copies fonts next to the binary; source layout is for go run
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct {
	fontPath string
}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{fontPath: resolveFontPath()}
}

func resolveFontPath() string {
	for _, p := range []string{pdfFontRuntimePath, pdfFontSourcePath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (pf *PDFFormatter) Format(ev entity.Evaluation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// core fonts cannot render Vietnamese; titles and qids are ASCII anyway
	fontName := "Arial"
	if pf.fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", pf.fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", pf.fontPath)
		fontName = pdfFontName
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, baseTitle)
	pdf.Ln(14)

	pdf.SetFont(fontName, "", 12)
	for _, row := range summaryRows(ev) {
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, row[1], "1", 1, "L", false, 0, "")
	}

	if len(ev.Predictions) > 0 {
		pdf.Ln(6)
		pdf.SetFont(fontName, "B", 14)
		pdf.Cell(0, 8, "Predicted letters")
		pdf.Ln(10)
		pdf.SetFont(fontName, "", 12)
		for _, p := range ev.Predictions {
			pdf.CellFormat(20, 7, p.Letter, "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprint(p.Count), "1", 1, "R", false, 0, "")
		}
	}

	if len(ev.SampleErrors) > 0 {
		pdf.Ln(6)
		pdf.SetFont(fontName, "B", 14)
		pdf.Cell(0, 8, "Sample errors")
		pdf.Ln(10)
		pdf.SetFont(fontName, "", 12)
		_, lineHeight := pdf.GetFontSize()
		for _, e := range ev.SampleErrors {
			line := fmt.Sprintf("%s: predicted %s, ground truth %s", e.QID, e.Predicted, derefOr(e.GroundTruth, "-"))
			pdf.MultiCell(0, lineHeight*1.5, line, "", "", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
