package stamper

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
)

const (
	a4WidthPt  = 595.28
	a4HeightPt = 841.89

	annotationBandHeightPt = 150.0
	minAnnotationWidthPt   = 420.0
	bandPaddingPt          = 14.0
)

// renderPDF reproduces every page of the original PDF and appends a
// certificate page. The payload string is additionally stored verbatim in the
// PDF Keywords metadata so extraction never needs to render the file.
//
// gofpdi panics on PDFs it cannot parse; the recover converts that into a
// rendering failure so no partial output escapes.
func (s *Stamper) renderPDF(req Request, payload string) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("failed to import source PDF: %v", r)
		}
	}()

	src, err := os.CreateTemp("", "docproof-src-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	srcName := src.Name()
	defer os.Remove(srcName)
	if _, err := src.Write(req.Data); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("failed to close scratch file: %w", err)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	imp := gofpdi.NewImporter()
	tpl := imp.ImportPage(pdf, srcName, 1, "/MediaBox")
	// The importer wrapper has no page-count accessor; the size map carries
	// one entry per source page.
	pageSizes := imp.GetPageSizes()
	pageCount := len(pageSizes)

	for page := 1; page <= pageCount; page++ {
		if page > 1 {
			tpl = imp.ImportPage(pdf, srcName, page, "/MediaBox")
		}
		w, h := a4WidthPt, a4HeightPt
		if box, ok := pageSizes[page]["/MediaBox"]; ok && box["w"] > 0 && box["h"] > 0 {
			w, h = box["w"], box["h"]
		}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
	}

	s.addCertificatePage(pdf, req, payload)
	return finishPDF(pdf, req, payload)
}

// addCertificatePage appends the human-legible certificate page with the QR code.
func (s *Stamper) addCertificatePage(pdf *gofpdf.Fpdf, req Request, payload string) {
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: a4WidthPt, Ht: a4HeightPt})

	const marginPt = 56.0
	contentW := a4WidthPt - 2*marginPt

	pdf.SetXY(marginPt, 120)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentW, 26, "CERTIFICATE OF REGISTRATION", "", 2, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 16, "This document's fingerprint is recorded on an append-only ledger.", "", 2, "C", false, 0, "")
	pdf.Ln(24)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(marginPt)
	pdf.CellFormat(contentW, 18, "Certificate Number: "+req.CertificateNumber, "", 2, "L", false, 0, "")
	pdf.SetX(marginPt)
	pdf.CellFormat(contentW, 18, "Fingerprint (SHA-256): "+truncateHash(req.DocumentHash), "", 2, "L", false, 0, "")
	pdf.SetX(marginPt)
	pdf.CellFormat(contentW, 18, "Registered (UTC): "+formatTimestamp(req.Timestamp), "", 2, "L", false, 0, "")
	pdf.Ln(18)

	embedQR(pdf, req.CertificateNumber, payload, (a4WidthPt-160)/2, pdf.GetY(), 160)

	pdf.SetXY(marginPt, pdf.GetY()+186)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(contentW, 13, "To verify: scan the QR code, or submit the certificate number together with "+
		"the original document (or its SHA-256 fingerprint) to the verification service. "+
		"A match against the ledger record confirms the document is unaltered since registration.", "", "C", false)
}

// drawCertificateBand draws the fixed-height annotation band used beneath
// wrapped raster images.
func drawCertificateBand(pdf *gofpdf.Fpdf, req Request, payload string, y, w float64) {
	qrSize := annotationBandHeightPt - 2*bandPaddingPt

	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(0, y, w, annotationBandHeightPt, "F")
	pdf.SetDrawColor(80, 80, 80)
	pdf.Line(0, y, w, y)

	textW := w - qrSize - 3*bandPaddingPt
	pdf.SetXY(bandPaddingPt, y+bandPaddingPt)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(textW, 15, "BLOCKCHAIN CERTIFIED DOCUMENT", "", 2, "L", false, 0, "")
	pdf.SetX(bandPaddingPt)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(textW, 13, "Certificate Number: "+req.CertificateNumber, "", 2, "L", false, 0, "")
	pdf.SetX(bandPaddingPt)
	pdf.CellFormat(textW, 13, "Fingerprint (SHA-256): "+truncateHash(req.DocumentHash), "", 2, "L", false, 0, "")
	pdf.SetX(bandPaddingPt)
	pdf.CellFormat(textW, 13, "Registered (UTC): "+formatTimestamp(req.Timestamp), "", 2, "L", false, 0, "")
	pdf.SetX(bandPaddingPt)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(textW, 11, "Scan the QR code or submit the certificate number with the original document to verify.", "", "L", false)

	embedQR(pdf, req.CertificateNumber, payload, w-qrSize-bandPaddingPt, y+bandPaddingPt, qrSize)
}

// embedQR registers the payload QR image once per certificate and places it.
func embedQR(pdf *gofpdf.Fpdf, certificateNumber, payload string, x, y, size float64) {
	r, err := qrPNG(payload)
	if err != nil {
		pdf.SetError(err)
		return
	}
	name := "qr-" + certificateNumber
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, r)
	pdf.ImageOptions(name, x, y, size, size, false, opts, 0, "")
}

// finishPDF stamps document metadata (including the verbatim payload in
// Keywords) and serializes the file.
func finishPDF(pdf *gofpdf.Fpdf, req Request, payload string) ([]byte, error) {
	pdf.SetTitle("Certified copy of "+req.OriginalName, false)
	pdf.SetSubject("Blockchain document certification "+req.CertificateNumber, false)
	pdf.SetKeywords(payload, false)
	pdf.SetCreator("docproof", false)

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
