package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/chachamwise/axiom-audit-global/internal/engine"
)

const (
	pdfMargin     = 15.0 // mm
	pdfLineHeight = 5.0  // mm
)

// PDF renders the audit as a single-page A4 PDF. The body mirrors the text
// report line for line in a monospace face, under an Arial title block, so
// the archived copy and the pasted copy never disagree.
func PDF(res *engine.Result, meta Meta) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(contentW, 10, "AXIOM INFRASTRUCTURE AUDIT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(contentW, 6,
		fmt.Sprintf("Station %s | %s | Auditor: %s",
			meta.Station, meta.GeneratedAt.Format("2006-01-02 15:04"), meta.Engineer),
		"", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Courier", "", 9)
	for _, line := range strings.Split(Text(res, meta), "\n") {
		pdf.CellFormat(contentW, pdfLineHeight, line, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
