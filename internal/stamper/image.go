package stamper

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the accepted raster formats.
	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"
)

// pixelToPoint converts image pixels to page points assuming 96 DPI input.
const pixelToPoint = 72.0 / 96.0

// renderImage wraps a raster image as a new single-page document sized to fit
// the image plus the fixed-height annotation band.
func (s *Stamper) renderImage(req Request, payload string) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(req.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var imageType string
	switch format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPG"
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}

	imgW := float64(cfg.Width) * pixelToPoint
	imgH := float64(cfg.Height) * pixelToPoint
	pageW := imgW
	if pageW < minAnnotationWidthPt {
		pageW = minAnnotationWidthPt
	}
	pageH := imgH + annotationBandHeightPt

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: pageW, Ht: pageH})

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("original", opts, bytes.NewReader(req.Data))
	pdf.ImageOptions("original", (pageW-imgW)/2, 0, imgW, imgH, false, opts, 0, "")

	drawCertificateBand(pdf, req, payload, imgH, pageW)
	return finishPDF(pdf, req, payload)
}
