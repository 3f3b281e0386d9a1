package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries everything the renderer prints.
type CertificateData struct {
	StudentName string
	CourseTitle string
	Percent     int
	IssuedAt    time.Time
	Serial      string
}

// Renderer produces certificate PDFs.
type Renderer interface {
	Render(data CertificateData) ([]byte, error)
}

type certificateRenderer struct {
	issuerName string
}

func NewCertificateRenderer(issuerName string) Renderer {
	if issuerName == "" {
		issuerName = "Aprendo Academy"
	}
	return &certificateRenderer{issuerName: issuerName}
}

// Render draws an A4 landscape certificate and returns the PDF bytes.
func (r *certificateRenderer) Render(data CertificateData) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()

	// Double border
	pdf.SetDrawColor(30, 64, 124)
	pdf.SetLineWidth(1.2)
	pdf.Rect(8, 8, pageW-16, pageH-16, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(12, 12, pageW-24, pageH-24, "D")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 64, 124)
	pdf.SetY(28)
	pdf.CellFormat(0, 10, r.issuerName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 32)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetY(50)
	pdf.CellFormat(0, 14, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetY(74)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(30, 64, 124)
	pdf.SetY(86)
	pdf.CellFormat(0, 12, data.StudentName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetY(102)
	pdf.CellFormat(0, 8, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetY(114)
	pdf.CellFormat(0, 10, data.CourseTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetY(132)
	pdf.CellFormat(0, 8, fmt.Sprintf("with a final score of %d%%", data.Percent), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetY(150)
	pdf.CellFormat(0, 8, "Issued on "+data.IssuedAt.Format("January 2, 2006"), "", 1, "C", false, 0, "")

	if data.Serial != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(130, 130, 130)
		pdf.SetY(pageH - 24)
		pdf.CellFormat(0, 6, "Serial: "+data.Serial, "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
